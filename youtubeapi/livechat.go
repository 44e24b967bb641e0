package youtubeapi

import (
	"context"
	"errors"
	"fmt"

	yt "google.golang.org/api/youtube/v3"

	"github.com/suimin/suibot/bot"
)

// ErrNoActiveBroadcast is returned by ActiveLiveChatID when the authenticated
// channel has no broadcast currently live. It is a not-found condition, not an
// upstream failure.
var ErrNoActiveBroadcast = errors.New("no active broadcast")

// FetchRecentMessages returns one page of recent live-chat messages, oldest to
// newest as the API delivers them. maxResults is clamped to the API limit of
// 200. Implements bot.ChatSource.
func (s *Service) FetchRecentMessages(ctx context.Context, chatID string, maxResults int64) ([]bot.ChatMessage, error) {
	if chatID == "" {
		return nil, &bot.ConfigError{Setting: "LIVE_CHAT_ID"}
	}
	if maxResults <= 0 || maxResults > 200 {
		maxResults = 200
	}
	svc, err := s.Client(ctx)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout())
	defer cancel()
	resp, err := svc.LiveChatMessages.List(chatID, []string{"snippet", "authorDetails"}).
		MaxResults(maxResults).Context(ctx).Do()
	if err != nil {
		return nil, bot.WrapUpstream("youtube livechat list", err)
	}
	out := make([]bot.ChatMessage, 0, len(resp.Items))
	for _, item := range resp.Items {
		m := bot.ChatMessage{ID: item.Id}
		if item.AuthorDetails != nil {
			m.Author = item.AuthorDetails.DisplayName
		}
		if item.Snippet != nil {
			m.Text = item.Snippet.DisplayMessage
		}
		out = append(out, m)
	}
	return out, nil
}

// PostMessage inserts text into the live chat and returns the new message id.
// Implements bot.ChatSink.
func (s *Service) PostMessage(ctx context.Context, chatID, text string) (string, error) {
	if chatID == "" {
		return "", &bot.ConfigError{Setting: "LIVE_CHAT_ID"}
	}
	if text == "" {
		return "", fmt.Errorf("empty message text")
	}
	svc, err := s.Client(ctx)
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout())
	defer cancel()
	msg := &yt.LiveChatMessage{
		Snippet: &yt.LiveChatMessageSnippet{
			LiveChatId: chatID,
			Type:       "textMessageEvent",
			TextMessageDetails: &yt.LiveChatTextMessageDetails{
				MessageText: text,
			},
		},
	}
	res, err := svc.LiveChatMessages.Insert([]string{"snippet"}, msg).Context(ctx).Do()
	if err != nil {
		return "", bot.WrapUpstream("youtube livechat insert", err)
	}
	if res.Id == "" {
		return "", bot.WrapUpstream("youtube livechat insert", errors.New("empty message id in response"))
	}
	return res.Id, nil
}

// ActiveLiveChatID resolves the live chat id of the channel's currently active
// broadcast. Returns ErrNoActiveBroadcast when nothing is live.
func (s *Service) ActiveLiveChatID(ctx context.Context) (string, error) {
	svc, err := s.Client(ctx)
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout())
	defer cancel()
	resp, err := svc.LiveBroadcasts.List([]string{"snippet"}).
		BroadcastStatus("active").BroadcastType("all").Context(ctx).Do()
	if err != nil {
		return "", bot.WrapUpstream("youtube broadcasts list", err)
	}
	for _, item := range resp.Items {
		if item.Snippet != nil && item.Snippet.LiveChatId != "" {
			return item.Snippet.LiveChatId, nil
		}
	}
	return "", ErrNoActiveBroadcast
}
