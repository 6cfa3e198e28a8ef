package pgxcasbin

import "errors"

var (
	ErrRuleTooLong     = errors.New("pgxcasbin: rule length exceeds field count")
	ErrArgsTooLong     = errors.New("pgxcasbin: args length exceeds field count")
	ErrEmptyPtype      = errors.New("pgxcasbin: ptype is empty")
	ErrSelectRules     = errors.New("pgxcasbin: failed to select rules")
	ErrInsertRule      = errors.New("pgxcasbin: failed to insert rule")
	ErrDeleteRule      = errors.New("pgxcasbin: failed to delete rule")
	ErrBatchExec       = errors.New("pgxcasbin: failed to execute batch")
	ErrReplaceRules    = errors.New("pgxcasbin: failed to replace rules")
	ErrPingPool        = errors.New("pgxcasbin: failed to ping pool")
	ErrNotifyMessage   = errors.New("pgxcasbin: failed to notify")
	ErrListenChannel   = errors.New("pgxcasbin: failed to listen channel")
	ErrWaitNotify      = errors.New("pgxcasbin: failed to wait for notification")
	ErrInvalidIdentity = errors.New("pgxcasbin: invalid sql identifier")
)
