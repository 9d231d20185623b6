package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// discord caps embeds at 25 fields; overflow is summarized instead
const maxFieldsPerEmbed = 25

type DiscordMessage struct {
	Content interface{}    `json:"content"`
	Embeds  []DiscordEmbed `json:"embeds,omitempty"`
}

type DiscordEmbed struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Color       int                  `json:"color"`
	Fields      []DiscordEmbedsField `json:"fields,omitempty"`
	Footer      DiscordEmbedsFooter  `json:"footer,omitempty"`
	Timestamp   time.Time            `json:"timestamp"`
}

type DiscordEmbedsFooter struct {
	Text string `json:"text"`
}

type DiscordEmbedsField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

const embedColorLightBlue = 0x58b9ff

type discordSender struct {
	log        *logrus.Entry
	webhookURL string

	httpClient *http.Client
}

func (d *discordSender) Name() string {
	return "discord"
}

func NewDiscordSender(log *logrus.Entry, webhookURL string) Sender {
	return &discordSender{
		log:        log.WithField("sender", "discord"),
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: time.Second * 30,
		},
	}
}

func (d *discordSender) CanSend() bool {
	return d.webhookURL != ""
}

func (d *discordSender) Send(title string, description string, runTime time.Duration, fields []Field) error {
	embedFields := make([]DiscordEmbedsField, 0, len(fields))
	for i, field := range fields {
		// the overflow summary takes the last slot, keeping the embed at
		// exactly the cap
		if i == maxFieldsPerEmbed-1 && len(fields) > maxFieldsPerEmbed {
			embedFields = append(embedFields, DiscordEmbedsField{
				Name:  "...",
				Value: fmt.Sprintf("and %d more", len(fields)-maxFieldsPerEmbed+1),
			})
			break
		}

		embedFields = append(embedFields, DiscordEmbedsField{
			Name:  field.Name,
			Value: field.Value,
		})
	}

	msg := DiscordMessage{
		Content: nil,
		Embeds: []DiscordEmbed{
			{
				Title:       title,
				Description: description,
				Color:       embedColorLightBlue,
				Fields:      embedFields,
				Footer: DiscordEmbedsFooter{
					Text: fmt.Sprintf("Run time: %s", runTime.Truncate(time.Millisecond)),
				},
				Timestamp: time.Now(),
			},
		},
	}

	jsonData, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "could not marshal discord message")
	}

	if err := d.sendRequest(jsonData); err != nil {
		return errors.Wrap(err, "failed to send message to discord")
	}

	d.log.Debug("Notification successfully sent to discord")
	return nil
}

func (d *discordSender) sendRequest(jsonData []byte) error {
	req, err := http.NewRequest(http.MethodPost, d.webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return errors.Wrap(err, "could not create request")
	}

	req.Header.Set("Content-Type", "application/json")

	res, err := d.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "client request error")
	}
	defer res.Body.Close()

	d.log.Tracef("Discord response status: %d", res.StatusCode)

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusNoContent {
		body, readErr := io.ReadAll(res.Body)
		if readErr != nil {
			return errors.Wrap(readErr, "could not read body")
		}

		return errors.Errorf("unexpected status: %v body: %v", res.StatusCode, string(body))
	}

	return nil
}
