// Package mqaid identifies MQA-encoded FLAC files.
//
// An MQA stream hides a 36-bit synchronization word in the low-order bits
// of its PCM samples, followed by a short payload carrying the original
// sample rate and a provenance value. mqaid decodes the first seconds of a
// file, looks for that word and reports what it finds. It can also mark
// positive files with MQAENCODER and ORIGINALSAMPLERATE comments so other
// software recognizes them.
//
// # Quick Start
//
// Checking a single file:
//
//	res, err := mqaid.Identify(ctx, "song.flac")
//	if err != nil {
//		log.Fatal(err)
//	}
//	if res.Watermarked {
//		fmt.Printf("MQA, originally %d Hz (studio: %v)\n",
//			res.OriginalSampleRate, res.Studio)
//	}
//
// Checking many files in parallel:
//
//	results, err := mqaid.IdentifyMany(ctx, paths, mqaid.WithWorkers(8))
//
// Tagging a positive file:
//
//	_, err := mqaid.Tag("song.flac", res.OriginalSampleRate)
//
// # Supported Input
//
// Only native FLAC files with two channels at 16 or 24 bits per sample can
// carry the watermark this package looks for. Other containers are rejected
// during validation and other stream layouts yield an
// UnsupportedFormatError. A file with no watermark is not an error.
//
// # Command Line
//
// cmd/mqaid walks directories, identifies every FLAC file with a bounded
// worker pool, tags the positives and prints a summary. See its --help.
//
// # Error Handling
//
// Failures are typed: ValidationError, UnsupportedFormatError, DecodeError,
// TaggingError, InvalidBytecodeError and UnknownError. Reason returns the
// path-free text used to group failures in batch reports.
package mqaid
