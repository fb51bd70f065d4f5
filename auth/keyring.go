// Package auth keeps per-platform cookies in the system keyring.
package auth

import (
	"errors"

	"github.com/seamui/seamui/anchor"
	"github.com/seamui/seamui/constant"
	"github.com/zalando/go-keyring"
)

const service = constant.App

func user(p anchor.Platform) string {
	return "cookie:" + p.ID()
}

// SetCookie stores the cookie sent to the lookup script of p.
func SetCookie(p anchor.Platform, cookie string) error {
	return keyring.Set(service, user(p), cookie)
}

// Cookie returns the stored cookie of p, or "" when none is stored.
func Cookie(p anchor.Platform) (string, error) {
	cookie, err := keyring.Get(service, user(p))
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	return cookie, err
}

// DeleteCookie forgets the cookie of p. Deleting a missing cookie is not an error.
func DeleteCookie(p anchor.Platform) error {
	err := keyring.Delete(service, user(p))
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
