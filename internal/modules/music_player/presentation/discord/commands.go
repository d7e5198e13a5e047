package discord

import "github.com/bwmarrin/discordgo"

// Commands returns all slash commands for the music player module.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "play",
			Description: "Play a song or playlist from a URL or search",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionString,
					Name:         "query",
					Description:  "YouTube URL or search term",
					Required:     true,
					Autocomplete: true,
				},
			},
		},
		{
			Name:        "skip",
			Description: "Skip the current song",
		},
		{
			Name:        "previous",
			Description: "Play the previous song",
		},
		{
			Name:        "stop",
			Description: "Stop playback and leave the voice channel",
		},
		{
			Name:        "toggle",
			Description: "Pause or resume playback",
		},
		{
			Name:        "shuffle",
			Description: "Shuffle the upcoming songs",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "mode",
					Description: "Toggle shuffle mode instead of shuffling once",
					Required:    false,
				},
			},
		},
		{
			Name:        "loop",
			Description: "Toggle whether finished songs return to the end of the queue",
		},
		{
			Name:        "jump",
			Description: "Jump to a song in the queue",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionInteger,
					Name:         "position",
					Description:  "Song number as shown in the queue",
					Required:     true,
					MinValue:     floatPtr(1),
					Autocomplete: true,
				},
			},
		},
		{
			Name:        "queue",
			Description: "Show the queue",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "page",
					Description: "Page number",
					Required:    false,
					MinValue:    floatPtr(1),
				},
			},
		},
		{
			Name:        "panel",
			Description: "Move the now playing panel to this channel",
		},
	}
}

func floatPtr(f float64) *float64 {
	return &f
}
