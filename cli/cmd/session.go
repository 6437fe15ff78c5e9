package cmd

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-shellwords"
	"github.com/ponyo877/pairchat/pb"
	"github.com/rivo/tview"
	"google.golang.org/protobuf/types/known/structpb"
)

var errNotInRoom = errors.New("you are not in a chat yet")

// maxUploadBytes mirrors the server's image cap so large files fail locally.
const maxUploadBytes = 10 << 20

// frameSender is the sending half of a session stream.
type frameSender interface {
	Send(*structpb.Struct) error
}

// chatSession keeps the client-side view of one connection: the name in use,
// the current room and whether a typing notice is outstanding.
type chatSession struct {
	stream frameSender
	name   string

	mu      sync.Mutex
	roomID  string
	partner string
	typing  bool
	seq     int
}

func newChatSession(stream frameSender, name string) *chatSession {
	return &chatSession{stream: stream, name: name}
}

func (s *chatSession) send(frameType, requestID string, payload pb.RequestPayload) error {
	frame, err := pb.NewFrame(frameType, requestID, payload)
	if err != nil {
		return err
	}
	st, err := pb.ToStruct(frame)
	if err != nil {
		return err
	}
	return s.stream.Send(st)
}

func (s *chatSession) room() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}

func (s *chatSession) join() error {
	return s.send("join", "", pb.RequestPayload{DisplayName: s.name})
}

func (s *chatSession) findNewChat() error {
	return s.send("find-new-chat", "", pb.RequestPayload{DisplayName: s.name})
}

func (s *chatSession) leave() error {
	return s.send("leave-room", "", pb.RequestPayload{RoomID: s.room(), DisplayName: s.name})
}

func (s *chatSession) say(text string) error {
	room := s.room()
	if room == "" {
		return errNotInRoom
	}
	if err := s.setTyping(false); err != nil {
		return err
	}
	return s.send("message", "", pb.RequestPayload{RoomID: room, Sender: s.name, Text: text})
}

// setTyping sends typing or stop-typing only when the state changes.
func (s *chatSession) setTyping(typing bool) error {
	s.mu.Lock()
	room := s.roomID
	if room == "" || s.typing == typing {
		s.mu.Unlock()
		return nil
	}
	s.typing = typing
	s.mu.Unlock()

	frameType := "stop-typing"
	if typing {
		frameType = "typing"
	}
	return s.send(frameType, "", pb.RequestPayload{RoomID: room, Sender: s.name})
}

func (s *chatSession) uploadImage(path string) (string, error) {
	room := s.room()
	if room == "" {
		return "", errNotInRoom
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.Size() > maxUploadBytes {
		return "", fmt.Errorf("%s is %d bytes, images are limited to %d", filepath.Base(path), info.Size(), maxUploadBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.seq++
	requestID := "upload-" + strconv.Itoa(s.seq)
	s.mu.Unlock()

	return requestID, s.send("upload-image", requestID, pb.RequestPayload{
		RoomID:          room,
		Sender:          s.name,
		Filename:        filepath.Base(path),
		ImageDataBase64: base64.StdEncoding.EncodeToString(data),
	})
}

// handleEvent applies a server frame to the session and returns the line to
// show, with tview color tags. An empty line means nothing to show.
func (s *chatSession) handleEvent(frame pb.Frame, now time.Time) string {
	var p pb.EventPayload
	if err := frame.DecodePayload(&p); err != nil {
		return "[red]" + tview.Escape(err.Error())
	}
	stamp := now.Format(time.TimeOnly)

	s.mu.Lock()
	defer s.mu.Unlock()
	switch frame.Type {
	case "waiting", "searching-new-chat":
		s.roomID, s.partner, s.typing = "", "", false
		return "[yellow]" + tview.Escape(p.Message)
	case "connected":
		s.roomID, s.partner, s.typing = p.RoomID, p.PartnerName, false
		return fmt.Sprintf("[green]You are now chatting with %s. Say hi!", tview.Escape(p.PartnerName))
	case "message":
		return fmt.Sprintf("[white][%s] [blue]%s[white]: %s", stamp, tview.Escape(p.Sender), tview.Escape(p.Text))
	case "image-message":
		expires := time.UnixMilli(p.ExpiresAt).Format(time.TimeOnly)
		return fmt.Sprintf("[white][%s] [blue]%s[white] sent an image: %s (until %s)", stamp, tview.Escape(p.Sender), tview.Escape(p.URL), expires)
	case "user-typing":
		return "[gray]" + tview.Escape(p.Sender) + " is typing..."
	case "user-stopped-typing":
		return ""
	case "partner-disconnected":
		s.roomID, s.partner, s.typing = "", "", false
		return "[red]Your partner left. Type /next to find someone new."
	case "disconnected-from-room":
		s.roomID, s.partner, s.typing = "", "", false
		return "[yellow]You left the chat."
	case "upload-image":
		if !p.Success {
			return fmt.Sprintf("[red]Image upload failed (%s): %s", p.Code, tview.Escape(p.Error))
		}
		return ""
	case "error":
		return fmt.Sprintf("[red]%s: %s", p.Code, tview.Escape(p.Message))
	default:
		return ""
	}
}

type inputCommand struct {
	name string
	args []string
}

// parseInput splits slash commands with shell quoting rules. Plain text is a
// message and returns ok=false.
func parseInput(line string) (inputCommand, bool, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return inputCommand{}, false, nil
	}
	words, err := shellwords.Parse(line[1:])
	if err != nil {
		return inputCommand{}, true, fmt.Errorf("cannot parse command: %w", err)
	}
	if len(words) == 0 {
		return inputCommand{}, true, errors.New("empty command")
	}
	return inputCommand{name: strings.ToLower(words[0]), args: words[1:]}, true, nil
}
