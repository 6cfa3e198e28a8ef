package main

import (
	"context"
	"time"

	"github.com/shandysiswandi/titipyuk/internal/app"
)

// @title           TitipYuk Verification API
// @version         1.0
// @description     TitipYuk email verification codes and the request gate in front of the booking pages.
// @server          http://localhost:8080
func main() {
	svc := app.New()
	<-svc.Start()

	// in-flight verify requests and consumer acks get a bounded window
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	svc.Stop(ctx)
}
