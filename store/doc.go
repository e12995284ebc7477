// Package store provides durable basecamp.ValidatorStore backends.
//
// FileStore keeps every validator in one JSON document on an afero.Fs and
// rewrites it atomically on change. SQLStore keeps them in a gorm managed
// "validators" table, which suits several processes sharing one database.
package store
