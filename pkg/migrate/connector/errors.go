package connector

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionExpired : the token was rejected or already spent, connect again
	ErrSessionExpired = errors.New("session expired")
	// ErrNotConnected : no session given and auto connect is off
	ErrNotConnected = errors.New("not connected")
	// ErrConnectionFailed : the destination refused the credentials
	ErrConnectionFailed = errors.New("could not log in")
	// ErrServerRestarting : the destination is restarting, the query may be tried again later
	ErrServerRestarting = errors.New("server is restarting")
)

// ServerRestartMessage : single cell of a failed result while the destination restarts
const ServerRestartMessage = "The BlazingDB server is restarting please try again in a moment."

const maxResponseLen = 100

// QueryError : the destination answered but did not accept the query
type QueryError struct {
	Query    string
	Status   int
	Response string
	Err      error
}

func (e *QueryError) Error() string {
	msg := fmt.Sprintf("query='%s', status=%d, response='%s'", shorten(e.Query), e.Status, shorten(e.Response))
	if e.Err != nil {
		return fmt.Sprintf("%v : %s", e.Err, msg)
	}
	return msg
}

func (e *QueryError) Unwrap() error { return e.Err }

func shorten(s string) string {
	if len(s) <= maxResponseLen {
		return s
	}
	return s[:maxResponseLen-3] + "..."
}
