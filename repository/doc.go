// Package repository provides a generic repository built on Bun for lookups,
// filtered and paged listing, inserts, and transactions.
package repository
