// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package memstore is an in-memory store.Store for development and tests.

Every operation holds one mutex. InTx holds it for the whole transaction and
stages claims, votes and counters, applying them only when fn succeeds.
Reads through the Tx see the staged changes.

Selected with DATABASE_TYPE=memory. Data is lost on restart.
*/
package memstore
