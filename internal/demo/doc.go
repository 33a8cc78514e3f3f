// Package demo runs the example workload: a producer appending
// {hello, date, nestedObj} entries on a timer and a reader that logs every
// new entry of the stream.
package demo
