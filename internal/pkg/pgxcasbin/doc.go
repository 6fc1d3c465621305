// Package pgxcasbin persists casbin policies in PostgreSQL through pgx and
// keeps enforcers on several replicas in sync with LISTEN/NOTIFY.
package pgxcasbin
