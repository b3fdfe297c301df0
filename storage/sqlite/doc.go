// Package sqlite implements the relational stores on SQLite through the
// pure-Go modernc.org/sqlite driver.
//
// Store provides storage.ArticleStore over the news_items table, where a
// UNIQUE constraint on url makes duplicate detection race-free, and
// storage.ChatHistory over chat_messages. Schema changes are embedded SQL
// migrations applied on Open.
package sqlite
