// Package database provides connection management, schema descriptors built
// from bun models, foreign key overrides, the migration history store,
// configuration types, logging, and query hooks built on top of Bun.
package database
