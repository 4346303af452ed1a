package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrRateLimited     = errors.New("rate limited")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrWSDisconnect    = errors.New("websocket disconnected")
	ErrNoAssets        = errors.New("no assets to subscribe")
	ErrUnknownStrategy = errors.New("unknown strategy")
)
