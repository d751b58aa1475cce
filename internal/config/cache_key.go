package config

import (
	"fmt"
)

type CacheKeyStruct struct {
	// CatalogQuestions holds the JSON-encoded question catalogue.
	CatalogQuestions string
	// CatalogVersion is bumped on every catalogue mutation.
	CatalogVersion string
}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{
		CatalogQuestions: "catalog:questions",
		CatalogVersion:   "catalog:version",
	}
}

// PracticeProgressKey returns the key holding a practice session's snapshot
func (r *CacheKeyStruct) PracticeProgressKey(sessionID string) string {
	return fmt.Sprintf("practice:%s:progress", sessionID)
}

// LoginAttemptsKey returns the key counting failed admin logins for an email
func (r *CacheKeyStruct) LoginAttemptsKey(email string) string {
	return fmt.Sprintf("login_attempts:%s", email)
}

var CacheKey = NewCacheKeyStruct()
