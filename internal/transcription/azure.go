package transcription

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/nguyentantai21042004/announce-flow/internal/logger"
)

// 100ms of 16kHz 16-bit mono
const azureChunkSize = 3200

// AzureOptions configures the Azure Speech backend
type AzureOptions struct {
	Region       string
	APIKey       string
	LanguageCode string
	SampleRate   int
	// Endpoint replaces the regional websocket URL when set
	Endpoint string
}

type azureBackend struct {
	opts   AzureOptions
	dialer *websocket.Dialer
	logger logger.Logger
}

// errStopped ends a turn because the consumer stopped iterating
var errStopped = errors.New("consumer stopped")

// NewAzure creates a backend speaking the Azure Speech websocket protocol.
// Results carry no usable timing, so segments are untimed.
func NewAzure(opts AzureOptions, log logger.Logger) (Backend, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("azure speech: api key is required")
	}
	if opts.Endpoint == "" {
		if opts.Region == "" {
			return nil, fmt.Errorf("azure speech: region is required")
		}
		opts.Endpoint = fmt.Sprintf("wss://%s.stt.speech.microsoft.com/speech/recognition/conversation/cognitiveservices/v1", opts.Region)
	}
	if opts.SampleRate == 0 {
		opts.SampleRate = 16000
	}
	return &azureBackend{
		opts:   opts,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		logger: log,
	}, nil
}

func (b *azureBackend) Name() string { return "azure" }

func (b *azureBackend) Capabilities() Capabilities {
	return Capabilities{Timing: false, Interim: true}
}

// Transcribe runs turns until the audio is exhausted. The service may end a
// turn early; the next turn continues on the remaining audio.
func (b *azureBackend) Transcribe(ctx context.Context, audio io.Reader) iter.Seq2[Segment, error] {
	return func(yield func(Segment, error) bool) {
		for {
			exhausted, err := b.turn(ctx, audio, yield)
			if errors.Is(err, errStopped) {
				return
			}
			if err != nil {
				yield(Segment{}, err)
				return
			}
			if exhausted {
				return
			}
			b.logger.Debug(ctx, "Azure turn ended before the audio, reconnecting")
		}
	}
}

// turn runs one websocket connection and reports whether it consumed the
// rest of the audio
func (b *azureBackend) turn(ctx context.Context, audio io.Reader, yield func(Segment, error) bool) (bool, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	conn, resp, err := b.dialer.DialContext(ctx, b.endpoint(), b.headers())
	if err != nil {
		if resp != nil {
			return false, fmt.Errorf("dial azure speech (status %d): %w", resp.StatusCode, err)
		}
		return false, fmt.Errorf("dial azure speech: %w", err)
	}

	requestID := azureID()
	if err := conn.WriteMessage(websocket.TextMessage, azureTextMessage("speech.config", requestID, speechConfig)); err != nil {
		conn.Close()
		return false, fmt.Errorf("send speech config: %w", err)
	}

	var exhausted atomic.Bool
	sent := make(chan error, 1)
	go func() { sent <- b.pump(ctx, conn, requestID, audio, &exhausted) }()
	// The pump must be gone before another turn reads from the same audio.
	defer func() {
		cancel()
		conn.Close()
		<-sent
	}()
	b.logger.Debug(ctx, "Opened azure speech turn %s (lang=%s)", requestID, b.opts.LanguageCode)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return false, fmt.Errorf("receive recognition: %w", err)
		}
		if msgType != websocket.TextMessage {
			continue
		}

		path, body := parseAzureMessage(data)
		switch path {
		case "speech.hypothesis", "speech.phrase":
			seg, ok, err := azureSegment(path, body)
			if err != nil {
				return false, err
			}
			if ok && !yield(seg, nil) {
				return false, errStopped
			}
		case "turn.end":
			return exhausted.Load(), nil
		}
	}
}

// pump streams audio as binary frames. The first frame carries a WAV header;
// an empty frame marks the end of the audio.
func (b *azureBackend) pump(ctx context.Context, conn *websocket.Conn, requestID string, audio io.Reader, exhausted *atomic.Bool) error {
	buf := make([]byte, azureChunkSize)
	first := true
	for {
		n, err := audio.Read(buf)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if n > 0 {
			chunk := buf[:n]
			if first {
				chunk = append(wavHeader(b.opts.SampleRate), chunk...)
				first = false
			}
			if werr := conn.WriteMessage(websocket.BinaryMessage, azureAudioMessage(requestID, chunk)); werr != nil {
				return fmt.Errorf("send audio: %w", werr)
			}
		}
		if errors.Is(err, io.EOF) {
			exhausted.Store(true)
			return conn.WriteMessage(websocket.BinaryMessage, azureAudioMessage(requestID, nil))
		}
		if err != nil {
			return fmt.Errorf("read audio: %w", err)
		}
	}
}

func (b *azureBackend) endpoint() string {
	q := url.Values{}
	q.Set("language", b.opts.LanguageCode)
	q.Set("format", "simple")
	return b.opts.Endpoint + "?" + q.Encode()
}

func (b *azureBackend) headers() http.Header {
	h := http.Header{}
	h.Set("Ocp-Apim-Subscription-Key", b.opts.APIKey)
	h.Set("X-ConnectionId", azureID())
	return h
}

var speechConfig = []byte(`{"context":{"system":{"name":"announce-flow","version":"1.0.0"},"os":{"platform":"Linux","name":"announce-flow","version":"1"},"audio":{"source":{"type":"Stream"}}}}`)

func azureID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func azureTimestamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}

func azureTextMessage(path, requestID string, body []byte) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "Path: %s\r\nX-RequestId: %s\r\nX-Timestamp: %s\r\nContent-Type: application/json\r\n\r\n",
		path, requestID, azureTimestamp())
	b.Write(body)
	return b.Bytes()
}

// azureAudioMessage frames audio behind a big-endian header length
func azureAudioMessage(requestID string, audio []byte) []byte {
	header := fmt.Sprintf("Path: audio\r\nX-RequestId: %s\r\nX-Timestamp: %s\r\nContent-Type: audio/x-wav\r\n",
		requestID, azureTimestamp())
	msg := make([]byte, 2, 2+len(header)+len(audio))
	binary.BigEndian.PutUint16(msg, uint16(len(header)))
	msg = append(msg, header...)
	return append(msg, audio...)
}

// parseAzureMessage splits a text frame into its Path header and body
func parseAzureMessage(data []byte) (string, []byte) {
	head, body, _ := bytes.Cut(data, []byte("\r\n\r\n"))
	for _, line := range strings.Split(string(head), "\r\n") {
		name, value, ok := strings.Cut(line, ":")
		if ok && strings.EqualFold(strings.TrimSpace(name), "path") {
			return strings.ToLower(strings.TrimSpace(value)), body
		}
	}
	return "", body
}

type azureResult struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	Text              string `json:"Text"`
	DisplayText       string `json:"DisplayText"`
}

// azureSegment converts a hypothesis or phrase. Phrases without a
// successful recognition carry no text.
func azureSegment(path string, body []byte) (Segment, bool, error) {
	var r azureResult
	if err := json.Unmarshal(body, &r); err != nil {
		return Segment{}, false, fmt.Errorf("parse %s: %w", path, err)
	}
	if path == "speech.hypothesis" {
		return Segment{Partial: true, Content: r.Text}, r.Text != "", nil
	}
	switch r.RecognitionStatus {
	case "Success":
		return Segment{Content: r.DisplayText}, r.DisplayText != "", nil
	case "Error":
		return Segment{}, false, fmt.Errorf("azure recognition error")
	}
	return Segment{}, false, nil
}

// wavHeader describes an open-ended 16-bit mono PCM stream
func wavHeader(sampleRate int) []byte {
	h := make([]byte, 44)
	copy(h[0:], "RIFF")
	copy(h[8:], "WAVE")
	copy(h[12:], "fmt ")
	binary.LittleEndian.PutUint32(h[16:], 16)
	binary.LittleEndian.PutUint16(h[20:], 1)
	binary.LittleEndian.PutUint16(h[22:], 1)
	binary.LittleEndian.PutUint32(h[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(h[28:], uint32(sampleRate*bytesPerSample))
	binary.LittleEndian.PutUint16(h[32:], bytesPerSample)
	binary.LittleEndian.PutUint16(h[34:], 16)
	copy(h[36:], "data")
	return h
}
