package presentation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/ottersound/melobot/internal/bot"
	"github.com/ottersound/melobot/internal/modules/music_player/application/ports"
	"github.com/ottersound/melobot/internal/modules/music_player/application/usecases"
	"github.com/ottersound/melobot/internal/modules/music_player/domain"
)

// Embed colors.
const (
	colorSuccess = 0x08c404
	colorError   = 0xE74C3C
)

// Handlers holds all the command handlers.
type Handlers struct {
	player     *usecases.PlayerService
	voiceState ports.VoiceStateProvider
}

// NewHandlers creates new Handlers.
func NewHandlers(player *usecases.PlayerService, voiceState ports.VoiceStateProvider) *Handlers {
	return &Handlers{
		player:     player,
		voiceState: voiceState,
	}
}

// HandlePlay handles the /play command. Resolution can outlive the
// interaction response window, so the response is deferred and delivered as
// a followup.
func (h *Handlers) HandlePlay(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	userID, err := snowflake.Parse(i.Member.User.ID)
	if err != nil {
		return respondError(r, "Invalid user")
	}

	notificationChannelID, err := snowflake.Parse(i.ChannelID)
	if err != nil {
		return respondError(r, "Invalid channel")
	}

	var query string
	options := i.ApplicationCommandData().Options
	for _, opt := range options {
		if opt.Name == "query" {
			query = opt.StringValue()
		}
	}

	// Join where the requester is; with no channel the session falls back to
	// its last known one.
	voiceChannelID, err := h.voiceState.UserVoiceChannel(guildID, userID)
	if err != nil {
		return respondError(r, "Could not look up your voice channel")
	}

	if err := r.Defer(); err != nil {
		return err
	}

	output, err := h.player.Play(context.Background(), usecases.PlayInput{
		GuildID:               guildID,
		Query:                 query,
		RequestedBy:           userID,
		RequesterName:         getDisplayName(i.Member),
		VoiceChannelID:        voiceChannelID,
		NotificationChannelID: notificationChannelID,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNoPriorChannel) {
			return followupError(r, "Join a voice channel first.")
		}
		return followupError(r, err.Error())
	}

	return followupQueueAdded(r, output.Track, output.Position)
}

// HandlePause handles the /pause command.
func (h *Handlers) HandlePause(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	if err := h.player.Pause(context.Background(), usecases.PauseInput{GuildID: guildID}); err != nil {
		return respondError(r, err.Error())
	}

	return respondMessage(r, "Paused playback.")
}

// HandleResume handles the /resume command.
func (h *Handlers) HandleResume(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	if err := h.player.Resume(context.Background(), usecases.ResumeInput{GuildID: guildID}); err != nil {
		return respondError(r, err.Error())
	}

	return respondMessage(r, "Resumed playback.")
}

// HandleSkip handles the /skip command.
func (h *Handlers) HandleSkip(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	output, err := h.player.Skip(context.Background(), usecases.SkipInput{GuildID: guildID})
	if err != nil {
		return respondError(r, err.Error())
	}

	return respondSkipped(r, output.Skipped)
}

// HandleStop handles the /stop command. The queue survives a stop; a later
// /play picks it back up.
func (h *Handlers) HandleStop(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	output, err := h.player.Stop(context.Background(), usecases.StopInput{GuildID: guildID})
	if err != nil {
		return respondError(r, err.Error())
	}

	message := "Stopped playback."
	if output.QueueLength > 0 {
		message = fmt.Sprintf("Stopped playback. %d tracks remain in the queue.", output.QueueLength)
	}
	return respondMessage(r, message)
}

// HandleNowPlaying handles the /nowplaying command.
func (h *Handlers) HandleNowPlaying(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	output, err := h.player.NowPlaying(context.Background(), usecases.NowPlayingInput{GuildID: guildID})
	if err != nil {
		if errors.Is(err, domain.ErrNotPlaying) || errors.Is(err, usecases.ErrNoSession) {
			return respondError(r, "Nothing is playing.")
		}
		return respondError(r, err.Error())
	}

	return respondNowPlaying(r, output)
}

// HandleQueue handles the /queue command.
func (h *Handlers) HandleQueue(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return respondError(r, "Invalid subcommand")
	}

	subCmd := options[0]
	switch subCmd.Name {
	case "list":
		return h.handleQueueList(s, i, r, subCmd.Options)
	case "remove":
		return h.handleQueueRemove(s, i, r, subCmd.Options)
	case "move":
		return h.handleQueueMove(s, i, r, subCmd.Options)
	case "clear":
		return h.handleQueueClear(s, i, r)
	case "shuffle":
		return h.handleQueueShuffle(s, i, r)
	default:
		return respondError(r, "Unknown subcommand")
	}
}

func (h *Handlers) handleQueueList(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
	options []*discordgo.ApplicationCommandInteractionDataOption,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	page := 1
	for _, opt := range options {
		if opt.Name == "page" {
			page = int(opt.IntValue())
		}
	}

	output, err := h.player.QueueList(context.Background(), usecases.QueueListInput{
		GuildID: guildID,
		Page:    page,
	})
	if err != nil {
		if errors.Is(err, usecases.ErrNoSession) {
			return respondError(r, "Queue is empty.")
		}
		return respondError(r, err.Error())
	}

	return respondQueueList(r, output)
}

func (h *Handlers) handleQueueRemove(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
	options []*discordgo.ApplicationCommandInteractionDataOption,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	var position int
	for _, opt := range options {
		if opt.Name == "position" {
			position = int(opt.IntValue())
		}
	}

	output, err := h.player.Remove(context.Background(), usecases.RemoveInput{
		GuildID:  guildID,
		Position: position,
	})
	if err != nil {
		if errors.Is(err, domain.ErrIndexOutOfRange) {
			return respondError(r, "No track at that position.")
		}
		return respondError(r, err.Error())
	}

	return respondQueueRemoved(r, output.Removed)
}

func (h *Handlers) handleQueueMove(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
	options []*discordgo.ApplicationCommandInteractionDataOption,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	var from, to int
	for _, opt := range options {
		switch opt.Name {
		case "from":
			from = int(opt.IntValue())
		case "to":
			to = int(opt.IntValue())
		}
	}

	output, err := h.player.Move(context.Background(), usecases.MoveInput{
		GuildID: guildID,
		From:    from,
		To:      to,
	})
	if err != nil {
		if errors.Is(err, domain.ErrIndexOutOfRange) {
			return respondError(r, "No track at that position.")
		}
		return respondError(r, err.Error())
	}

	return respondQueueMoved(r, output.Moved, output.To)
}

func (h *Handlers) handleQueueClear(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	output, err := h.player.Clear(context.Background(), usecases.ClearInput{GuildID: guildID})
	if err != nil {
		return respondError(r, err.Error())
	}

	return respondMessage(r, fmt.Sprintf("Cleared %d tracks from the queue.", output.Cleared))
}

func (h *Handlers) handleQueueShuffle(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	if err := h.player.Shuffle(context.Background(), usecases.ShuffleInput{GuildID: guildID}); err != nil {
		return respondError(r, err.Error())
	}

	return respondMessage(r, "Shuffled the queue.")
}

// HandleVolume handles the /volume command.
func (h *Handlers) HandleVolume(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	var level int64
	options := i.ApplicationCommandData().Options
	for _, opt := range options {
		if opt.Name == "level" {
			level = opt.IntValue()
		}
	}

	err = h.player.SetVolume(context.Background(), usecases.SetVolumeInput{
		GuildID: guildID,
		Level:   float64(level) / 100.0,
	})
	if err != nil {
		return respondError(r, err.Error())
	}

	return respondMessage(r, fmt.Sprintf("Volume set to %d%%.", level))
}

// HandleLoop handles the /loop command.
func (h *Handlers) HandleLoop(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	ctx := context.Background()

	// Check if mode option was provided
	var modeStr string
	options := i.ApplicationCommandData().Options
	for _, opt := range options {
		if opt.Name == "mode" {
			modeStr = opt.StringValue()
		}
	}

	var newMode domain.LoopMode
	if modeStr != "" {
		mode := domain.ParseLoopMode(modeStr)
		err := h.player.SetLoopMode(ctx, usecases.SetLoopModeInput{
			GuildID: guildID,
			Mode:    mode,
		})
		if err != nil {
			return respondError(r, err.Error())
		}
		newMode = mode
	} else {
		output, err := h.player.CycleLoopMode(ctx, usecases.CycleLoopModeInput{
			GuildID: guildID,
		})
		if err != nil {
			return respondError(r, err.Error())
		}
		newMode = output.Mode
	}

	return respondLoopModeChanged(r, newMode)
}

// HandleLeave handles the /leave command.
func (h *Handlers) HandleLeave(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	err = h.player.Leave(context.Background(), usecases.LeaveInput{GuildID: guildID})
	if err != nil {
		if errors.Is(err, usecases.ErrNoSession) {
			return respondError(r, "Not connected.")
		}
		return respondError(r, err.Error())
	}

	return respondMessage(r, "Disconnected.")
}

// Response helpers.

func respondError(r bot.Responder, message string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       "Error",
					Description: message,
					Color:       colorError,
				},
			},
		},
	})
}

func respondMessage(r bot.Responder, message string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Description: message,
					Color:       colorSuccess,
				},
			},
		},
	})
}

func followupError(r bot.Responder, message string) error {
	return r.Followup(&discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{
			{
				Title:       "Error",
				Description: message,
				Color:       colorError,
			},
		},
	})
}

func followupQueueAdded(r bot.Responder, track *usecases.Track, position int) error {
	var description string
	if track.URI != "" {
		description = fmt.Sprintf("Added [%s](%s) to the queue.", track.Title, track.URI)
	} else {
		description = fmt.Sprintf("Added **%s** to the queue.", track.Title)
	}
	if position > 1 {
		description = fmt.Sprintf("%s Position: %d.", description, position)
	}

	return r.Followup(&discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{
			{
				Description: description,
				Color:       colorSuccess,
			},
		},
	})
}

func respondSkipped(r bot.Responder, track *usecases.Track) error {
	if track == nil {
		return respondMessage(r, "Skipped.")
	}

	var description string
	if track.URI != "" {
		description = fmt.Sprintf("Skipped [%s](%s).", track.Title, track.URI)
	} else {
		description = fmt.Sprintf("Skipped **%s**.", track.Title)
	}

	return respondMessage(r, description)
}

func respondQueueRemoved(r bot.Responder, track *usecases.Track) error {
	var description string
	if track.URI != "" {
		description = fmt.Sprintf("Removed [%s](%s).", track.Title, track.URI)
	} else {
		description = fmt.Sprintf("Removed **%s**.", track.Title)
	}

	return respondMessage(r, description)
}

func respondQueueMoved(r bot.Responder, track *usecases.Track, to int) error {
	var description string
	if track.URI != "" {
		description = fmt.Sprintf("Moved [%s](%s) to position %d.", track.Title, track.URI, to)
	} else {
		description = fmt.Sprintf("Moved **%s** to position %d.", track.Title, to)
	}

	return respondMessage(r, description)
}

func respondLoopModeChanged(r bot.Responder, mode domain.LoopMode) error {
	var description string
	switch mode {
	case domain.LoopModeTrack:
		description = "Now looping the current track."
	case domain.LoopModeQueue:
		description = "Now looping the queue."
	default:
		description = "Loop disabled."
	}

	return respondMessage(r, description)
}

func respondNowPlaying(r bot.Responder, output *usecases.NowPlayingOutput) error {
	track := output.Track

	embed := &discordgo.MessageEmbed{
		Author: &discordgo.MessageEmbedAuthor{
			Name: "Now Playing",
		},
		Title: track.Title,
		URL:   track.URI,
		Color: colorSuccess,
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
			{
				Name:   "State",
				Value:  output.State.String(),
				Inline: true,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf(
				"Volume %d%% | Loop: %s | Requested by %s",
				int(output.Volume*100),
				output.LoopMode.String(),
				track.RequesterName,
			),
		},
	}
	if track.ArtworkURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: track.ArtworkURL}
	}

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

func respondQueueList(r bot.Responder, output *usecases.QueueListOutput) error {
	// Build title with loop mode indicator
	title := "Queue"
	switch output.LoopMode {
	case domain.LoopModeTrack:
		title = "Queue \U0001F502"
	case domain.LoopModeQueue:
		title = "Queue \U0001F501"
	}

	embed := &discordgo.MessageEmbed{
		Title: title,
	}

	if output.Current == nil && output.TotalTracks == 0 {
		embed.Description = "Queue is empty."
		return r.Respond(&discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Embeds: []*discordgo.MessageEmbed{embed},
			},
		})
	}

	var sb strings.Builder
	if output.Current != nil {
		sb.WriteString("### Now Playing\n")
		writeTrackLine(&sb, 0, *output.Current)
	}

	if len(output.Tracks) > 0 {
		sb.WriteString("### Up Next\n")
		offset := (output.Page - 1) * 10
		for i, track := range output.Tracks {
			writeTrackLine(&sb, offset+i+1, track)
		}
	}

	embed.Description = sb.String()
	embed.Footer = &discordgo.MessageEmbedFooter{
		Text: fmt.Sprintf("Page %d/%d | %d queued", output.Page, output.TotalPages, output.TotalTracks),
	}

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

// writeTrackLine writes one queue entry, escaping the period so Discord does
// not render a markdown list. Index 0 means the current track.
func writeTrackLine(sb *strings.Builder, index int, track usecases.Track) {
	prefix := "-"
	if index > 0 {
		prefix = fmt.Sprintf("%d\\.", index)
	}
	if track.URI != "" {
		fmt.Fprintf(sb, "%s [%s](%s) - %s\n", prefix, track.Title, track.URI, track.Artist)
	} else {
		fmt.Fprintf(sb, "%s **%s** - %s\n", prefix, track.Title, track.Artist)
	}
}

// getDisplayName returns the effective display name for a guild member.
// Priority: guild nickname > global display name > username.
func getDisplayName(member *discordgo.Member) string {
	if member.Nick != "" {
		return member.Nick
	}
	if member.User.GlobalName != "" {
		return member.User.GlobalName
	}
	return member.User.Username
}
