// Package hash provides adaptive one-way hashing for short secrets such as
// one-time codes. Only the digest is ever stored; Compare checks a candidate
// against it in constant time.
package hash
