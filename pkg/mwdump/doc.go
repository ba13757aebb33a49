// Package mwdump reads MediaWiki full-history export streams.
//
// A dump is one XML document: a <siteinfo> header followed by <page>
// elements, each holding the page's revisions in history order. Dumps run to
// terabytes, so the reader never materializes more than one revision at a
// time; it walks the token stream and hands out revisions lazily.
//
// # Usage
//
// Create a Reader over the decompressed stream and drain it:
//
//	r := mwdump.NewReader(in, nil)
//	for {
//	    rev, err := r.Next(ctx)
//	    if err == io.EOF {
//	        break
//	    }
//	    var skip *domain.SkipError
//	    if errors.As(err, &skip) {
//	        // one bad revision; count it and keep reading
//	        continue
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    // process rev...
//	}
//
// A *domain.SkipError marks a single revision whose fields could not be
// decoded; the reader has already advanced past it and the sequence
// continues. Any other error is terminal for the stream.
//
// # Multi-part dumps
//
// Each part file is a complete XML document with its own <siteinfo>. Open
// one Reader per part; pages never straddle part boundaries.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package mwdump
