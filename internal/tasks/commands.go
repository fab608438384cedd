package tasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/services"
	"github.com/desertthunder/jukebox/internal/shared"
)

// ErrNotCommand is returned by [ParseCommand] for messages without the command prefix.
var ErrNotCommand = errors.New("not a command")

// CommandKind enumerates the chat commands.
type CommandKind int

const (
	CmdHelp CommandKind = iota
	CmdPlay
	CmdStop
	CmdVolume
	CmdPermsSet
	CmdPermsGet
	CmdPermsRemove
	CmdPermsList
)

func (k CommandKind) String() string {
	switch k {
	case CmdPlay:
		return "play"
	case CmdStop:
		return "stop"
	case CmdVolume:
		return "volume"
	case CmdPermsSet:
		return "perms set"
	case CmdPermsGet:
		return "perms get"
	case CmdPermsRemove:
		return "perms remove"
	case CmdPermsList:
		return "perms list"
	default:
		return "help"
	}
}

// Command is a parsed chat command.
type Command struct {
	Kind      CommandKind
	Source    models.Source // Play only; unknown means classify the reference
	Reference string
	Volume    *int // Volume only; nil reads the current volume
	Target    int64
	Level     models.PermLevel
}

// Message is an incoming chat message.
type Message struct {
	GuildID int64
	UserID  int64
	Content string
}

const helpText = "Commands: play <playlist>, youtube <url>, spotify <id>, stop, volume [0-100], " +
	"perms set <user> <level>, perms get <user>, perms remove <user>, perms list <level>"

// ParseCommand parses content into a [Command].
//
// Returns [ErrNotCommand] when content does not start with prefix.
func ParseCommand(prefix, content string) (*Command, error) {
	content = strings.TrimSpace(content)
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return nil, ErrNotCommand
	}

	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 {
		return nil, ErrNotCommand
	}

	name, args := strings.ToLower(fields[0]), fields[1:]
	switch name {
	case "play", "playlist", "p":
		return parsePlay(models.SourceUnknown, args)
	case "youtube", "yt":
		return parsePlay(models.SourceYouTube, args)
	case "spotify", "sp":
		return parsePlay(models.SourceSpotify, args)
	case "stop":
		return &Command{Kind: CmdStop}, nil
	case "volume", "vol":
		return parseVolume(args)
	case "perms", "perm":
		return parsePerms(args)
	case "help", "h":
		return &Command{Kind: CmdHelp}, nil
	default:
		return nil, fmt.Errorf("%w: unknown command %q", shared.ErrInvalidInput, name)
	}
}

func parsePlay(source models.Source, args []string) (*Command, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: playlist reference", shared.ErrMissingArgument)
	}
	return &Command{Kind: CmdPlay, Source: source, Reference: args[0]}, nil
}

func parseVolume(args []string) (*Command, error) {
	cmd := &Command{Kind: CmdVolume}
	if len(args) == 0 {
		return cmd, nil
	}

	v, err := strconv.Atoi(args[0])
	if err != nil {
		return nil, fmt.Errorf("%w: volume must be a number from 0 to 100", shared.ErrInvalidArgument)
	}
	cmd.Volume = &v
	return cmd, nil
}

func parsePerms(args []string) (*Command, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: perms subcommand (set, get, remove, list)", shared.ErrMissingArgument)
	}

	sub, args := strings.ToLower(args[0]), args[1:]
	switch sub {
	case "set":
		if len(args) < 2 {
			return nil, fmt.Errorf("%w: perms set <user> <level>", shared.ErrMissingArgument)
		}
		target, err := ParseUserID(args[0])
		if err != nil {
			return nil, err
		}
		level, err := models.ParsePermLevel(args[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
		return &Command{Kind: CmdPermsSet, Target: target, Level: level}, nil
	case "get", "remove", "rm":
		if len(args) < 1 {
			return nil, fmt.Errorf("%w: perms %s <user>", shared.ErrMissingArgument, sub)
		}
		target, err := ParseUserID(args[0])
		if err != nil {
			return nil, err
		}
		kind := CmdPermsGet
		if sub != "get" {
			kind = CmdPermsRemove
		}
		return &Command{Kind: kind, Target: target}, nil
	case "list", "ls":
		if len(args) < 1 {
			return nil, fmt.Errorf("%w: perms list <level>", shared.ErrMissingArgument)
		}
		level, err := models.ParsePermLevel(args[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
		return &Command{Kind: CmdPermsList, Level: level}, nil
	default:
		return nil, fmt.Errorf("%w: unknown perms subcommand %q", shared.ErrInvalidArgument, sub)
	}
}

// ParseUserID accepts a raw numeric ID or a mention such as <@123> or <@!123>.
func ParseUserID(s string) (int64, error) {
	s = strings.TrimSuffix(strings.TrimPrefix(s, "<@"), ">")
	s = strings.TrimPrefix(s, "!")

	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid user %q", shared.ErrInvalidArgument, s)
	}
	return id, nil
}

// Handle runs the command in msg and returns the reply to post. Messages that are not commands get an empty reply.
func (e *QueueEngine) Handle(ctx context.Context, msg Message) string {
	cmd, err := ParseCommand(e.prefix, msg.Content)
	if errors.Is(err, ErrNotCommand) {
		return ""
	}
	if err != nil {
		return UserMessage(err)
	}

	req := NewRequest(msg.GuildID, msg.UserID)
	e.requestLogger(req).Debug("handling command", "command", cmd.Kind)

	switch cmd.Kind {
	case CmdPlay:
		res, err := e.QueuePlaylist(ctx, req, cmd.Source, cmd.Reference, nil)
		if err != nil {
			return UserMessage(err)
		}
		if res.Queued == 0 {
			return "That playlist is empty"
		}
		return fmt.Sprintf("Queued %d tracks from %s playlist (queue length %d)", res.Queued, res.Resolution.Source, res.QueueLength)

	case CmdStop:
		if err := e.Stop(ctx, req); err != nil {
			if errors.Is(err, ErrNotConnected) {
				return "Not in a voice channel to play in"
			}
			return UserMessage(err)
		}
		return "Queue cleared"

	case CmdVolume:
		v, err := e.Volume(ctx, req, cmd.Volume)
		if err != nil {
			return UserMessage(err)
		}
		if cmd.Volume == nil {
			return fmt.Sprintf("The current volume is %d", v)
		}
		return fmt.Sprintf("Volume set to %d", v)

	case CmdPermsSet:
		level, err := e.SetPermission(ctx, req, cmd.Target, cmd.Level)
		if err != nil {
			return UserMessage(err)
		}
		return fmt.Sprintf("Set <@%d> to %s", cmd.Target, level)

	case CmdPermsGet:
		level, err := e.GetPermission(ctx, req, cmd.Target)
		if err != nil {
			return UserMessage(err)
		}
		return fmt.Sprintf("<@%d> is %s", cmd.Target, level)

	case CmdPermsRemove:
		if err := e.RemovePermission(ctx, req, cmd.Target); err != nil {
			return UserMessage(err)
		}
		return fmt.Sprintf("Removed permissions for <@%d>", cmd.Target)

	case CmdPermsList:
		perms, err := e.ListPermissions(ctx, req, cmd.Level)
		if err != nil {
			return UserMessage(err)
		}
		if len(perms) == 0 {
			return fmt.Sprintf("Nobody is %s", cmd.Level)
		}
		mentions := make([]string, len(perms))
		for i, p := range perms {
			mentions[i] = fmt.Sprintf("<@%d>", p.UserID)
		}
		return fmt.Sprintf("%s: %s", cmd.Level, strings.Join(mentions, ", "))

	default:
		return helpText
	}
}

// UserMessage maps an error to the reply shown in chat.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, shared.ErrPermissionDenied):
		return "You don't have permission to do that"
	case errors.Is(err, ErrNotConnected):
		return "Not in a voice channel"
	case errors.Is(err, ErrNothingPlaying):
		return "Nothing playing"
	case errors.Is(err, shared.ErrNotFound):
		return "Nothing stored for that user"
	case errors.Is(err, shared.ErrUnsupportedReference):
		return "That doesn't look like a YouTube or Spotify playlist"
	case errors.Is(err, shared.ErrMissingArgument), errors.Is(err, shared.ErrInvalidArgument), errors.Is(err, shared.ErrInvalidInput):
		return fmt.Sprintf("Invalid command (%v). %s", err, helpText)
	case errors.Is(err, context.DeadlineExceeded):
		return "Timed out resolving the playlist"
	}

	switch services.KindOf(err) {
	case services.KindExternalTool:
		return "Couldn't list that YouTube playlist: the downloader failed"
	case services.KindAPIResponse:
		var apiErr *services.APIResponseError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return "Spotify playlist not found"
		}
		if apiErr != nil && apiErr.Err == nil {
			return fmt.Sprintf("Spotify returned an error (status %d)", apiErr.StatusCode)
		}
		return "Spotify returned something unexpected"
	case services.KindDeserialization:
		return "Got malformed data from the provider"
	case services.KindTransport:
		return "Couldn't reach the provider, try again later"
	default:
		return "Something went wrong"
	}
}
