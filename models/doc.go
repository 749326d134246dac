// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

JSON field names follow the browser client's contract (_id, createdBy,
isActive, ...), so do not rename tags without updating the frontend.

# Request Types

  - VerifyRequest: walletAddress, signature, message
  - CheckAdminRequest: walletAddress
  - CreatePollRequest: title, description, options[{text}], deadline (RFC 3339)
  - UpdatePollRequest: any subset of the create fields plus isActive
  - CastVoteRequest: pollId, optionIndex
  - ListPollsQuery: isActive, search, page, limit (query string)

# Domain Types

  - Poll / Option: a poll and its ordered options; the option index is
    the identifier votes refer to
  - Vote: one wallet's choice in one poll, with a placeholder txHash
  - PollWithTally / PollDetail: a poll plus derived vote counts
  - VoteWithPoll / PollSnapshot: a history entry

# Response Types

Every response carries "success". Errors add "message" (and "error" with
the underlying detail outside production):

	{"success": false, "message": "You have already voted in this poll"}

DataResponse and ListResponse are generic envelopes for the common
{success, data} and {success, count, data} shapes.

# Signatures

Signature accepts the byte-array form browser wallets emit as well as
base58 and base64 strings.
*/
package models
