// Package exec runs external commands on behalf of task strategies.
//
// Two backends are provided.  Local spawns every command in its own process
// group.  Shell runs commands through a gosh managed shell session, each in
// a new session started with setsid.  Both kill a timed out command
// together with its children before Run returns.
package exec
