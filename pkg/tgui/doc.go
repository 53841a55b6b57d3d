// Package tgui holds text helpers for messages sent through the Telegram Bot
// API: rune-safe truncation and splitting under the per-message limit.
package tgui
