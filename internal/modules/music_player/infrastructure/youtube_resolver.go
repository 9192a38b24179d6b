package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"
	youtube "github.com/kkdai/youtube/v2"

	"github.com/ottersound/melobot/internal/modules/music_player/application/ports"
	"github.com/ottersound/melobot/internal/modules/music_player/domain"
)

// Compile-time check that YouTubeResolver implements ports.TrackResolver.
var _ ports.TrackResolver = (*YouTubeResolver)(nil)

// YouTubeResolver resolves queries against YouTube. Video URLs go straight
// through the youtube client; free-text queries are resolved to a video ID
// with yt-dlp's search before metadata is fetched the same way.
type YouTubeResolver struct {
	client *youtube.Client
}

// NewYouTubeResolver creates a resolver with a bounded HTTP client.
func NewYouTubeResolver() *YouTubeResolver {
	return &YouTubeResolver{
		client: &youtube.Client{
			HTTPClient: &http.Client{
				Timeout: 15 * time.Second,
			},
		},
	}
}

// Resolve turns a URL or search query into a playable track descriptor.
func (r *YouTubeResolver) Resolve(ctx context.Context, query string) (*ports.TrackInfo, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidTrack)
	}

	videoID, err := extractVideoID(query)
	if err != nil {
		if isURL(query) {
			return nil, fmt.Errorf("%w: unsupported URL %q", domain.ErrInvalidTrack, query)
		}
		videoID, err = searchFirstVideoID(ctx, query)
		if err != nil {
			return nil, err
		}
	}

	video, err := r.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("fetch video metadata: %w", err)
	}

	identifier := video.ID
	if identifier == "" {
		identifier = uuid.NewString()
	}

	info := &ports.TrackInfo{
		Identifier: identifier,
		Title:      video.Title,
		Artist:     video.Author,
		Duration:   video.Duration,
		URI:        "https://www.youtube.com/watch?v=" + video.ID,
		IsStream:   video.Duration == 0,
		Source: &youtubeAudioSource{
			client:  r.client,
			videoID: video.ID,
		},
	}
	if len(video.Thumbnails) > 0 {
		info.ArtworkURL = video.Thumbnails[len(video.Thumbnails)-1].URL
	}
	return info, nil
}

// Compile-time check that youtubeAudioSource implements domain.AudioSource.
var _ domain.AudioSource = (*youtubeAudioSource)(nil)

// youtubeAudioSource opens a fresh decode pipeline per playback: youtube
// stream piped through ffmpeg into framed PCM.
type youtubeAudioSource struct {
	client  *youtube.Client
	videoID string
}

func (s *youtubeAudioSource) Open(ctx context.Context) (domain.AudioStream, error) {
	video, err := s.client.GetVideoContext(ctx, s.videoID)
	if err != nil {
		return nil, fmt.Errorf("fetch video: %w", err)
	}

	formats := video.Formats.WithAudioChannels()
	if len(formats) == 0 {
		return nil, errors.New("no audio formats available")
	}

	stream, _, err := s.client.GetStreamContext(ctx, video, &formats[0])
	if err != nil {
		return nil, fmt.Errorf("open audio stream: %w", err)
	}

	out, cleanup, err := newFFmpegDecoder(stream)
	if err != nil {
		return nil, err
	}
	return newPCMStream(out, cleanup), nil
}

// Seekable is false: the pipeline decodes forward only, so an invalidated
// stream restarts from the beginning.
func (s *youtubeAudioSource) Seekable() bool {
	return false
}

// searchFirstVideoID asks yt-dlp for the first search hit without downloading.
func searchFirstVideoID(ctx context.Context, query string) (string, error) {
	cmd := exec.CommandContext(ctx, "yt-dlp",
		"-j",
		"--no-download",
		"--flat-playlist",
		"ytsearch1:"+query,
	)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("yt-dlp search: %w", err)
	}

	var hit struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(output, &hit); err != nil {
		return "", fmt.Errorf("yt-dlp search output: %w", err)
	}
	if hit.ID == "" {
		return "", fmt.Errorf("%w: no results for %q", domain.ErrInvalidTrack, query)
	}
	return hit.ID, nil
}

// extractVideoID pulls the video ID out of the common YouTube URL shapes.
func extractVideoID(input string) (string, error) {
	u, err := url.Parse(input)
	if err != nil || u.Host == "" {
		return "", errors.New("not a URL")
	}

	host := strings.TrimPrefix(u.Host, "www.")
	switch host {
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		if strings.HasPrefix(u.Path, "/watch") {
			if id := u.Query().Get("v"); id != "" {
				return id, nil
			}
		}
		if strings.HasPrefix(u.Path, "/shorts/") || strings.HasPrefix(u.Path, "/live/") {
			parts := strings.Split(strings.Trim(u.Path, "/"), "/")
			if len(parts) == 2 && parts[1] != "" {
				return parts[1], nil
			}
		}
	case "youtu.be":
		if id := strings.Trim(u.Path, "/"); id != "" {
			return id, nil
		}
	}
	return "", errors.New("no video ID in URL")
}

func isURL(input string) bool {
	u, err := url.Parse(input)
	return err == nil && u.Scheme != "" && u.Host != ""
}
