// Package session answers whether an account is the one logged in.
package session

import "errors"

// AccountKey is the store key holding the logged-in address
const AccountKey = "account"

// Account identifies a chain account
type Account struct {
	Address string `json:"address"`
}

// IsLoggedIn reports whether the stored address equals account.Address.
// Comparison is exact; a missing value or an empty address is false.
func IsLoggedIn(store Store, account Account) bool {
	if store == nil || account.Address == "" {
		return false
	}
	stored, ok := store.Get(AccountKey)
	if !ok {
		return false
	}
	return stored == account.Address
}

// Remember stores account as the logged-in account
func Remember(store Store, account Account) error {
	if account.Address == "" {
		return errors.New("account address is required")
	}
	return store.Put(AccountKey, account.Address)
}

// Forget clears the logged-in account
func Forget(store Store) error {
	return store.Delete(AccountKey)
}

// Current returns the logged-in account, if any
func Current(store Store) (Account, bool) {
	stored, ok := store.Get(AccountKey)
	if !ok || stored == "" {
		return Account{}, false
	}
	return Account{Address: stored}, true
}
