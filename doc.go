// Package main provides the entry point for the group moderation bot.
// The bot reacts to chat platform events (prefix commands, inline button
// presses, membership changes) and maintains group-scoped custom roles,
// per-role command permissions, role assignments and bans in relational
// storage. The heart of the system is the role level hierarchy: lower
// numeric level means higher privilege, and every mutating command is
// checked against it before anything is written.
package main
