package bot

import (
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
	"github.com/tenmans/tenmans/pkg/discord"
	"github.com/tenmans/tenmans/pkg/metrics"
)

// Don't need to update the session message more than once every 2 secs
const DeferredEditSeconds = 2

type SessionMessage struct {
	MessageID        string `json:"messageID"`
	MessageChannelID string `json:"messageChannelID"`
	SessionID        string `json:"sessionID"`
	CreationTimeUnix int64  `json:"creationTimeUnix"`
}

func (sm *SessionMessage) Exists() bool {
	return sm != nil && sm.MessageID != "" && sm.MessageChannelID != ""
}

func (sm *SessionMessage) shouldRefresh() bool {
	// discord dictates that we can't edit messages that are older than 1 hour
	return time.Since(time.Unix(sm.CreationTimeUnix, 0)) > time.Hour
}

type sessionRender struct {
	embed      *discordgo.MessageEmbed
	components []discordgo.MessageComponent
}

// SessionMessages tracks the one live status message per guild.
type SessionMessages struct {
	lock    sync.Mutex
	byGuild map[string]*SessionMessage

	deferredLock sync.Mutex
	deferred     map[string]*sessionRender

	record func(metrics.EventType, int64)
}

func NewSessionMessages(record func(metrics.EventType, int64)) *SessionMessages {
	if record == nil {
		record = func(metrics.EventType, int64) {}
	}
	return &SessionMessages{
		byGuild:  make(map[string]*SessionMessage),
		deferred: make(map[string]*sessionRender),
		record:   record,
	}
}

func (sms *SessionMessages) Get(guildID string) (SessionMessage, bool) {
	sms.lock.Lock()
	defer sms.lock.Unlock()
	sm, ok := sms.byGuild[guildID]
	if !ok {
		return SessionMessage{}, false
	}
	return *sm, true
}

func (sms *SessionMessages) set(guildID string, sm *SessionMessage) {
	sms.lock.Lock()
	sms.byGuild[guildID] = sm
	sms.lock.Unlock()
}

// Forget drops the guild's message and any edit still waiting for it.
func (sms *SessionMessages) Forget(guildID string) {
	sms.lock.Lock()
	sm, ok := sms.byGuild[guildID]
	delete(sms.byGuild, guildID)
	sms.lock.Unlock()
	if ok {
		sms.removePendingEdit(sm.MessageID)
	}
}

// Stop discards every pending edit.
func (sms *SessionMessages) Stop() {
	sms.deferredLock.Lock()
	sms.deferred = make(map[string]*sessionRender)
	sms.deferredLock.Unlock()
}

func ValidFields(me *discordgo.MessageEmbed) bool {
	if me == nil {
		return false
	}
	for _, v := range me.Fields {
		if v == nil {
			return false
		}
		if v.Name == "" || v.Value == "" {
			return false
		}
	}
	return true
}

// CreateMessage posts a fresh status message for the session and remembers it.
func (sms *SessionMessages) CreateMessage(s *discordgo.Session, guildID, channelID, sessionID string, me *discordgo.MessageEmbed, components []discordgo.MessageComponent) bool {
	if !ValidFields(me) {
		return false
	}
	msg, err := s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{me},
		Components: components,
	})
	if err != nil {
		log.Error().Err(err).Str("guild", guildID).Str("channel", channelID).Msg("failed to post session message")
		return false
	}
	sms.record(metrics.MessageCreateDelete, 1)
	created := time.Now()
	if ts, err := discord.SnowflakeTime(msg.ID); err == nil {
		created = ts
	}
	sms.set(guildID, &SessionMessage{
		MessageID:        msg.ID,
		MessageChannelID: msg.ChannelID,
		SessionID:        sessionID,
		CreationTimeUnix: created.Unix(),
	})
	return true
}

// DispatchRefreshOrEdit queues an edit of the guild's message, or reposts it once it is too old to edit.
func (sms *SessionMessages) DispatchRefreshOrEdit(s *discordgo.Session, guildID string, me *discordgo.MessageEmbed, components []discordgo.MessageComponent) {
	sm, ok := sms.Get(guildID)
	if !ok || !sm.Exists() {
		return
	}
	if sm.shouldRefresh() {
		sms.refresh(s, guildID, sm, me, components)
		return
	}
	sms.dispatchEdit(s, sm, me, components)
}

func (sms *SessionMessages) refresh(s *discordgo.Session, guildID string, sm SessionMessage, me *discordgo.MessageEmbed, components []discordgo.MessageComponent) {
	// don't try to edit this message, because we're about to delete it
	sms.removePendingEdit(sm.MessageID)

	if err := s.ChannelMessageDelete(sm.MessageChannelID, sm.MessageID); err != nil {
		log.Error().Err(err).Str("guild", guildID).Msg("failed to delete stale session message")
	} else {
		sms.record(metrics.MessageCreateDelete, 1)
	}
	sms.CreateMessage(s, guildID, sm.MessageChannelID, sm.SessionID, me, components)
}

func (sms *SessionMessages) dispatchEdit(s *discordgo.Session, sm SessionMessage, me *discordgo.MessageEmbed, components []discordgo.MessageComponent) (newEdit bool) {
	if !ValidFields(me) {
		return false
	}

	sms.deferredLock.Lock()
	// if it isn't found, then start the worker to wait to start it (this is a UNIQUE edit)
	if _, ok := sms.deferred[sm.MessageID]; !ok {
		go sms.deferredEditWorker(s, sm.MessageChannelID, sm.MessageID)
		newEdit = true
	}
	// whether or not it's found, replace the contents with the new message
	sms.deferred[sm.MessageID] = &sessionRender{embed: me, components: components}
	sms.deferredLock.Unlock()
	return newEdit
}

func (sms *SessionMessages) removePendingEdit(messageID string) {
	sms.deferredLock.Lock()
	delete(sms.deferred, messageID)
	sms.deferredLock.Unlock()
}

func (sms *SessionMessages) takePendingEdit(messageID string) *sessionRender {
	sms.deferredLock.Lock()
	defer sms.deferredLock.Unlock()
	r := sms.deferred[messageID]
	delete(sms.deferred, messageID)
	return r
}

func (sms *SessionMessages) deferredEditWorker(s *discordgo.Session, channelID, messageID string) {
	time.Sleep(time.Second * time.Duration(DeferredEditSeconds))

	r := sms.takePendingEdit(messageID)
	if r == nil {
		return
	}
	_, err := s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         messageID,
		Channel:    channelID,
		Embeds:     []*discordgo.MessageEmbed{r.embed},
		Components: r.components,
	})
	if err != nil {
		log.Error().Err(err).Str("message", messageID).Msg("failed to edit session message")
		return
	}
	sms.record(metrics.MessageEdit, 1)
}
