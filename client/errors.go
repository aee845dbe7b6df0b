package client

import (
	"errors"

	"github.com/mediastrand/ytcore/internal/pages"
	"github.com/mediastrand/ytcore/internal/types"
)

// Sentinel errors returned by the high-level API. Wrapped causes carry
// the underlying detail; match with errors.Is / errors.As.
var (
	// ErrInvalidInput means the input was neither a video ID nor a
	// recognized watch URL.
	ErrInvalidInput = errors.New("invalid video id or url")

	// ErrUnavailable means the video exists but cannot be played
	// (private, removed, geo-blocked, login required). The wrapped
	// *UnavailableError carries the upstream status and reason.
	ErrUnavailable = types.ErrUnavailable

	// ErrNoFormatFound means no catalog entry satisfied the selection
	// policy.
	ErrNoFormatFound = types.ErrSelectionNotFound

	// ErrAssetFetch means the player asset could not be retrieved.
	ErrAssetFetch = types.ErrAssetFetch

	// ErrExtraction means the player asset was fetched but the
	// transforms could not be located in it.
	ErrExtraction = types.ErrExtraction

	// ErrDecipher means a located transform failed to evaluate.
	ErrDecipher = types.ErrDecipher

	// ErrTransfer means a media transfer failed after retries.
	ErrTransfer = types.ErrTransfer

	// ErrProbe means the content-length probe request failed.
	ErrProbe = types.ErrProbe

	// ErrSegmentDecrypt means a live segment could not be decrypted.
	// Recoverable: later segments keep flowing.
	ErrSegmentDecrypt = types.ErrSegmentDecrypt

	// ErrManifestParse means a live playlist could not be parsed.
	ErrManifestParse = types.ErrManifestParse
)

// UnavailableError mirrors the upstream playability verdict.
type UnavailableError = pages.UnavailableError
