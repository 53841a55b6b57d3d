// Package logx configures chanrelay's structured logging.
//
// Console output goes to stderr in a short human format so stdout carries
// only the final status line. The optional file sink writes JSON lines for
// log collectors.
package logx
