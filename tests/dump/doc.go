/*
Package dump provides I/O operations for collected states of the Voting
contracts.

Closed polls are kept as archives: contract state along with the full storage
pulled from the blockchain at some height. Dumps are also used in tests to
emulate a "live" contract with real data.

Dumps are stored in the file system using human-readable encoding. Poll
records can be decoded from the dumped storage without running the contract,
see Reader.Poll.
*/
package dump
