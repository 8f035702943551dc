// Package journal keeps a durable record of Part entries staged on the
// platform but not yet referenced by a committed Collection head. The store
// writes to it before every commit and Sweep reads it back after a crash.
package journal
