package adapter

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/hupe1980/agenthub/core"
)

// videoIDPattern matches YouTube video IDs in watch URLs, short URLs or as
// bare IDs.
var videoIDPattern = regexp.MustCompile(`(?:v=|youtu\.be/|/embed/)([\w-]{11})|\b([\w-]{11})\b`)

// VideoCaptionsOptions configures the video caption adapter.
type VideoCaptionsOptions struct {
	// OEmbedBaseURL serves video metadata. Overridable for tests.
	OEmbedBaseURL string

	// TimedTextBaseURL serves the caption track. Overridable for tests.
	TimedTextBaseURL string

	HTTPClient *http.Client
}

// VideoCaptions fetches a YouTube video's metadata via oEmbed and its
// caption track via the timedtext endpoint. Videos without captions are a
// permanent condition, not a retryable one.
type VideoCaptions struct {
	oembedBase    string
	timedTextBase string
	client        *http.Client
}

// NewVideoCaptions constructs the video caption adapter.
func NewVideoCaptions(optFns ...func(o *VideoCaptionsOptions)) *VideoCaptions {
	opts := VideoCaptionsOptions{
		OEmbedBaseURL:    "https://www.youtube.com",
		TimedTextBaseURL: "https://video.google.com",
		HTTPClient:       defaultHTTPClient(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &VideoCaptions{
		oembedBase:    strings.TrimRight(opts.OEmbedBaseURL, "/"),
		timedTextBase: strings.TrimRight(opts.TimedTextBaseURL, "/"),
		client:        opts.HTTPClient,
	}
}

// Capability returns the registration descriptor.
func (v *VideoCaptions) Capability() core.Capability {
	return core.Capability{
		Name: "video_captions",
		Description: "Fetch the title and caption transcript of a youtube " +
			"video so its content can be summarized.",
		InputSchema: queryStringSchema(11),
		Idempotency: core.SafeRetry,
		MaxRetries:  2,
	}
}

type oembedReply struct {
	Title      string `json:"title"`
	AuthorName string `json:"author_name"`
}

type timedText struct {
	XMLName xml.Name `xml:"transcript"`
	Texts   []struct {
		Value string `xml:",chardata"`
	} `xml:"text"`
}

// Invoke implements core.Adapter.
func (v *VideoCaptions) Invoke(ctx context.Context, call core.Call) (*core.Result, error) {
	videoID := extractVideoID(call.Query)
	if videoID == "" {
		return nil, core.NewPermanentError("no video id or url in request", nil)
	}
	watchURL := "https://www.youtube.com/watch?v=" + videoID

	oembedURL := fmt.Sprintf("%s/oembed?url=%s&format=json", v.oembedBase, url.QueryEscape(watchURL))
	body, err := fetch(ctx, v.client, oembedURL)
	if err != nil {
		return nil, err
	}
	var meta oembedReply
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, core.NewPermanentError("decoding video metadata", err)
	}

	captionsURL := fmt.Sprintf("%s/timedtext?lang=en&v=%s", v.timedTextBase, url.QueryEscape(videoID))
	captionsBody, err := fetch(ctx, v.client, captionsURL)
	if err != nil {
		return nil, err
	}

	var transcript timedText
	if err := xml.Unmarshal(captionsBody, &transcript); err != nil || len(transcript.Texts) == 0 {
		return nil, core.NewPermanentError("captions unavailable for video "+videoID, nil)
	}

	parts := make([]string, 0, len(transcript.Texts))
	for _, t := range transcript.Texts {
		if s := collapseWhitespace(t.Value); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return nil, core.NewPermanentError("captions unavailable for video "+videoID, nil)
	}

	payload := fmt.Sprintf("%q by %s:\n%s", meta.Title, meta.AuthorName, strings.Join(parts, " "))
	return &core.Result{Payload: payload, Sources: []string{watchURL}}, nil
}

func extractVideoID(query string) string {
	m := videoIDPattern.FindStringSubmatch(query)
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}
