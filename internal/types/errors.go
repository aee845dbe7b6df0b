package types

import "errors"

var (
	// ErrAssetFetch indicates the player script bundle could not be retrieved.
	ErrAssetFetch = errors.New("player asset fetch failed")

	// ErrExtraction indicates no transform pattern matched the player script.
	// Non-fatal per descriptor: dependent formats are marked unusable.
	ErrExtraction = errors.New("cipher extraction failed")

	// ErrDecipher indicates the extracted transform errored out or exceeded
	// its evaluation budget.
	ErrDecipher = errors.New("decipher failed")

	// ErrProbe indicates the content-length probe request failed. The
	// descriptor is kept with unknown length.
	ErrProbe = errors.New("content length probe failed")

	// ErrSelectionNotFound indicates no descriptor satisfies the policy.
	ErrSelectionNotFound = errors.New("no format satisfies selection policy")

	// ErrTransfer indicates a transfer exhausted its retry budget.
	ErrTransfer = errors.New("transfer failed")

	// ErrSegmentDecrypt indicates an encrypted live segment could not be
	// decrypted. Recoverable: subsequent segments keep flowing.
	ErrSegmentDecrypt = errors.New("segment decrypt failed")

	// ErrManifestParse indicates a live playlist could not be parsed.
	ErrManifestParse = errors.New("manifest parse failed")

	// ErrUnavailable indicates the page collaborator reported the stream as
	// private, deleted, region-locked or otherwise unplayable. Never retried.
	ErrUnavailable = errors.New("stream unavailable")
)
