package infrastructure

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/ottersound/melobot/internal/modules/music_player/application/ports"
	"github.com/ottersound/melobot/internal/modules/music_player/domain"
)

// Embed colors.
const (
	colorRed    = 0xE74C3C
	colorPurple = 0x9B59B6
)

// Notifier sends playback announcements to Discord text channels.
type Notifier struct {
	session *discordgo.Session
}

// NewNotifier creates a new Notifier.
func NewNotifier(session *discordgo.Session) *Notifier {
	return &Notifier{
		session: session,
	}
}

// SendNowPlaying sends a "Now Playing" embed to the channel.
func (n *Notifier) SendNowPlaying(channelID snowflake.ID, track *domain.Track) error {
	embed := &discordgo.MessageEmbed{
		Author: &discordgo.MessageEmbedAuthor{
			Name: "Now Playing",
		},
		Title:     track.Title,
		URL:       track.URI,
		Color:     colorPurple,
		Timestamp: track.EnqueuedAt.UTC().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Artist",
				Value:  track.Artist,
				Inline: true,
			},
			{
				Name:   "Duration",
				Value:  track.FormattedDuration(),
				Inline: true,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Requested by %s", track.RequesterName),
		},
	}

	if track.ArtworkURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{
			URL: track.ArtworkURL,
		}
	}

	_, err := n.session.ChannelMessageSendEmbed(channelID.String(), embed)
	return err
}

// SendQueueAdded sends an "Added to Queue" embed to the channel.
func (n *Notifier) SendQueueAdded(channelID snowflake.ID, track *domain.Track, position int) error {
	description := fmt.Sprintf("Added **%s** to the queue (position %d).", track.Title, position)

	embed := &discordgo.MessageEmbed{
		Description: description,
	}

	_, err := n.session.ChannelMessageSendEmbed(channelID.String(), embed)
	return err
}

// SendQueueFinished announces that the queue ran out of tracks.
func (n *Notifier) SendQueueFinished(channelID snowflake.ID) error {
	embed := &discordgo.MessageEmbed{
		Description: "Queue finished.",
	}

	_, err := n.session.ChannelMessageSendEmbed(channelID.String(), embed)
	return err
}

// SendError sends an error message embed to the channel.
func (n *Notifier) SendError(channelID snowflake.ID, message string) error {
	embed := &discordgo.MessageEmbed{
		Description: message,
		Color:       colorRed,
	}

	_, err := n.session.ChannelMessageSendEmbed(channelID.String(), embed)
	return err
}

// Ensure Notifier implements ports.NotificationSender.
var _ ports.NotificationSender = (*Notifier)(nil)
