package notify

import (
	"context"
	"fmt"

	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/gateway"
	"github.com/diamondburned/arikawa/v3/session"
	"github.com/diamondburned/arikawa/v3/utils/sendpart"
	"go.uber.org/zap"

	"glyco/defs"
)

const (
	// AlertsChannel receives limit breaches, ReportsChannel run summaries.
	AlertsChannel  = "glyco-alerts"
	ReportsChannel = "glyco-reports"
)

type Discord struct {
	Session *session.Session
	Logger  *zap.Logger

	gid      discord.GuildID
	channels map[string]discord.ChannelID
}

func NewDiscord(cfg defs.DiscordConfig, logger *zap.Logger) (*Discord, error) {
	ses := session.NewWithIntents("Bot "+cfg.Token, gateway.IntentGuilds, gateway.IntentGuildMessages)

	if err := ses.Open(context.Background()); err != nil {
		return nil, fmt.Errorf("unable to open session: %w", err)
	}

	sf, err := discord.ParseSnowflake(cfg.Guild)
	if err != nil {
		return nil, err
	}

	return &Discord{
		Session: ses,
		Logger:  logger,
		gid:     discord.GuildID(sf),
	}, nil
}

// Setup resolves the named channels in the guild, creating any that do
// not exist yet.
func (d *Discord) Setup(channels []string) error {
	d.channels = make(map[string]discord.ChannelID)

	existChannels, err := d.Session.Channels(d.gid)
	if err != nil {
		return fmt.Errorf("unable to get channels: %w", err)
	}
	for _, ch := range existChannels {
		d.channels[ch.Name] = ch.ID
	}

	for _, chName := range channels {
		if _, ok := d.channels[chName]; !ok {
			d.Logger.Debug("creating channel", zap.String("channel name", chName))
			ch, err := d.Session.CreateChannel(d.gid, api.CreateChannelData{
				Name: chName,
				Type: discord.GuildText,
			})
			if err != nil {
				return fmt.Errorf("unable to create channel %s: %w", chName, err)
			}
			d.channels[chName] = ch.ID
		}
	}

	d.Logger.Debug("discord setup complete")
	return nil
}

func (d *Discord) SendMessage(data MessageData, chName string) (uint64, error) {
	chid, ok := d.channels[chName]
	if !ok {
		return 0, fmt.Errorf("unknown channel %s", chName)
	}

	msg, err := d.Session.SendMessageComplex(chid, marshalSendData(data))
	if err != nil {
		return 0, err
	}
	d.Logger.Debug("sent message", zap.String("channel name", chName))
	return uint64(msg.ID), nil
}

// marshalSendData transforms data of type MessageData to the
// api.SendMessageData arikawa expects.
func marshalSendData(data MessageData) api.SendMessageData {
	embeds := make([]discord.Embed, 0)
	for _, embed := range data.Embeds {
		fields := make([]discord.EmbedField, 0)

		for _, field := range embed.Fields {
			fields = append(fields, discord.EmbedField{
				Name:   field.Name,
				Value:  field.Value,
				Inline: field.Inline,
			})
		}

		embeds = append(embeds, discord.Embed{
			Title:       embed.Title,
			Description: embed.Description,
			Fields:      fields,
		})
	}

	files := make([]sendpart.File, 0)
	for _, file := range data.Files {
		files = append(files, sendpart.File{
			Name:   file.Name,
			Reader: file.Reader,
		})
	}

	md := api.SendMessageData{
		Content: data.Content,
		Embeds:  embeds,
		Files:   files,
	}

	if data.MentionEveryone {
		md.AllowedMentions = &api.AllowedMentions{
			Parse: []api.AllowedMentionType{api.AllowEveryoneMention},
		}
	}

	return md
}
