// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store holds the poll, vote and tally logic on top of database/sql.

# Poll Store

PollStore creates, lists, updates, closes and deletes polls. Ownership is
checked here: only the wallet in created_by may mutate a poll.

Expiry is lazy. There is no background sweeper; every read path calls
ExpireIfDue, which runs

	UPDATE poll SET is_active = false WHERE id = ? AND is_active = true

so an expired poll is persisted as inactive exactly once no matter how
many readers see it first.

# Vote Ledger

VoteLedger.Cast runs the checks in order: poll exists, poll active, poll
not expired (flipping it if so), option in range, wallet has not voted.
The last check is only a shortcut. UNIQUE(poll_id, voter_wallet) decides
races, and a violation surfaces as DuplicateVoteError.

History joins each vote with its poll as it reads now. Votes whose poll is
gone are skipped.

# Tally Engine

Counts are derived from the vote table on every read and never cached.
Percentages round to the nearest integer and are 0 for a poll without
votes.
*/
package store
