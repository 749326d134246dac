// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package client is a Go SDK for the VoteChain API.

A Client holds one wallet Session. Connect runs the sign-in handshake with
a Signer: fetch a nonce, sign the challenge message, exchange the signature
for a token. The session is saved to disk (0600) so later runs skip the
handshake:

	session, err := client.LoadSession(filepath.Join(dir, "session.json"))
	c := client.New("http://localhost:5000", session)
	err = c.Connect(ctx, client.NewKeySigner(key))
	vote, err := c.Cast(ctx, pollID, 1)
	if client.IsAlreadyVoted(err) {
		// ...
	}

Connecting a different wallet clears the old session first. Any 401 on an
authenticated call also clears it and returns an error wrapping
ErrNotConnected.
*/
package client
