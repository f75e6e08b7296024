/*
Package voting implements Voting contract which runs a single poll.

A poll is created on contract deployment with the list of options, the
entrance fee and the interval the poll stays open for. Anyone may vote by
transferring at least the entrance fee in GAS to the contract with the chosen
option as transfer data. Each account votes once. The poll is closed by the
owner at any time or by anyone after the deadline, no votes are accepted
since the deadline even if nobody closed the poll explicitly. Collected
payments stay on the contract account until the owner withdraws them after
the poll is closed.

# Contract notifications

Vote notification. This notification is produced when a vote is accepted.

	Vote:
	  - name: voter
	    type: Hash160
	  - name: option
	    type: String
	  - name: amount
	    type: Integer

Close notification. This notification is produced when the poll is closed by
Close method invocation. It is not produced when the poll is closed by the
deadline only.

	Close:
	  - name: time
	    type: Integer

Withdraw notification. This notification is produced when the owner moves
collected payments out of the contract account.

	Withdraw:
	  - name: to
	    type: Hash160
	  - name: amount
	    type: Integer
*/
package voting

/*
Contract storage model.

Current conventions:
 <option>: UTF-8 string identifier of the poll option
 <voter>: 20-byte script hash of the account that voted

# Summary
Key-value storage format:
 - 'f' -> int
   entrance fee in GAS fractions
 - 'i' -> int
   poll interval in seconds
 - 'd' -> int
   poll deadline, milliseconds since Unix epoch
 - 's' -> int
   stored poll state, see votingconst
 - 'w' -> interop.Hash160
   poll owner
 - 'c' -> int
   GAS collected from accepted votes
 - 'x' -> int
   GAS withdrawn by the owner
 - 'n' -> int
   number of accepted votes
 - 'l' -> std.Serialize([]string)
   options in the order they were given on deployment
 - 'm<option>' -> int
   marker of the known option
 - 't<option>' -> int
   number of votes for the option, missing value means zero
 - 'v<voter>' -> string
   option chosen by the voter

# State
Stored state is switched to closed by Close method only. Contract methods
treat the poll as closed once the block time reaches the deadline.
*/
