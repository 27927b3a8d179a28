package handler

const (
	notAdminText = "Nope!"

	setPlaylistUsage = "Usage: set_playlist <catalog> <playlist id or link>\n" +
		"Catalogs: %s\n" +
		"Example: set_playlist spotify 37i9dQZF1DXcBWIGoYBM5M"
	setCatalogPlaylistUsage = "Usage: %s <playlist id or link>"
	unknownCatalogText      = "Unknown catalog %q. Available: %s"
	catalogMismatchText     = "That link is a %s playlist, not a %s one."
	playlistNotFoundText    = "No %s playlist exists with ID %s"
	catalogUnavailableText  = "Could not reach %s right now, please try again later."
	bindingFailedText       = "Could not save the playlist, please try again later."
	playlistSetText         = "%s playlist set to %q"

	noBindingsText      = "No playlist configured for this chat yet. An admin can set one with set_playlist <catalog> <id>."
	bindingsHeader      = "Playlists for this chat:"
	bindingLine         = "%s: %s"
	bindingLineWithLink = "%s: %s\n%s"

	helpText = "I add every %s track or album link posted here to this chat's playlists.\n\n" +
		"Commands:\n" +
		"set_playlist <catalog> <playlist id or link> - bind a playlist (admin)\n" +
		"%s" +
		"/playlist - show the playlists of this chat\n" +
		"/status - show bot statistics\n" +
		"/help - show this message\n\n" +
		"You can find the playlist id by sharing a link to your playlist."
	catalogSetHelpLine = "set_%s_playlist <playlist id or link> - bind a %s playlist (admin)\n"

	chatInitText = "Hi! Post %s links here and I will collect them in this chat's playlists.\n" +
		"An admin can bind a playlist with set_playlist <catalog> <id>."

	statusText = "Chats: %d\nTracks added: %d\nAlready present: %d\nCatalogs: %s"

	commandUnavailableText = "Command unavailable"
	commandFailedText      = "Command failed: %v"
	commandDoneText        = "Done"
)
