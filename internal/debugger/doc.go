// Package debugger drives an interactive, text-only native debugger (LLDB) as a subprocess.
// The debugger prints free-form lines with no reply terminator, no request correlation and no
// state notifications, so this package supplies all three: a Framer decides where each reply
// ends, Observe infers the program lifecycle from the reply text, and a Registry serializes
// every operation on the single debugger process.
//
// The Dispatcher is the entry point. Each of its methods checks the session state, issues one
// raw debugger command (two for Eval), and returns a Result that callers can serialize as-is.
package debugger
