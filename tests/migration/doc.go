/*
Package migration provides framework to test migration of the Voting smart contract.

Polls live in the contract storage, and the contract is updated on the fly, so
data written by the previous contract version must stay readable by the new
one. The package provides services of Neo blockchain and the contract needed
for testing. Test blockchain environment is based on the state dumps (see
package dump) taken from remote blockchain instances or composed from
poll.Snapshot.
*/
package migration
