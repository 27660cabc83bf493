// Package cli implements the interactive valet shell: a line-oriented REPL
// over services.VaultService in which secrets are addressed by lot paths of
// the form "lot::label".
package cli
