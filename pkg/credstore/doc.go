// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-credstore.
//
// go-credstore is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package credstore is an application credential store. It keeps string
// values under string keys in the platform's secure storage when that is
// available, and otherwise in a locally encrypted store.
//
// # Backend selection
//
// Initialize tries the native backend (OS keychain or Vault) first. If it
// cannot be opened for any reason the failure is logged and the local
// encrypted backend is used instead. The choice is made once; every later
// operation goes to the same backend.
//
//	store := credstore.New(cfg, credstore.WithLogger(log))
//	if err := store.Initialize(ctx); err != nil {
//		return err
//	}
//	defer store.Close()
//
//	if err := store.SetJSON(ctx, "cred_"+id, credential); err != nil {
//		return err
//	}
//	creds, err := store.GetAllCredentials(ctx)
//
// # Conventions
//
// Keys whose first underscore-delimited segment is "cred" are credential
// records. The identity keys (DID, public key, private key, access key,
// login type, username) are named by configuration.
//
// Calling any operation before Initialize fails with ErrNotInitialized.
package credstore
