package push

import (
	"encoding/json"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/gofiber/fiber/v2/log"

	"github.com/flowdeskhq/flowdesk/app/models"
	"github.com/flowdeskhq/flowdesk/app/repository"
	"github.com/flowdeskhq/flowdesk/internal/pkg/env"
)

// Notification is the payload shape the service worker expects.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
}

// NotifyUser sends a Web Push notification to every registered endpoint of
// a user. Delivery is best effort: failed endpoints are dropped, nothing is
// retried, and the caller's request never fails because of push.
func NotifyUser(userID uint, n Notification) {
	vapidPublic := env.GetEnv("VAPID_PUBLIC_KEY", "")
	vapidPrivate := env.GetEnv("VAPID_PRIVATE_KEY", "")
	if vapidPublic == "" || vapidPrivate == "" {
		return
	}

	repo := repository.GetGlobalFactory().GetPushSubscriptionRepository()
	subs, err := repo.ListByUser(userID)
	if err != nil {
		log.Warnf("[Push] loading subscriptions for user %d failed: %v", userID, err)
		return
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return
	}

	for _, s := range subs {
		sendOne(repo, s, payload, vapidPublic, vapidPrivate)
	}
}

func sendOne(repo repository.PushSubscriptionRepository, s models.PushSubscription, payload []byte, vapidPublic, vapidPrivate string) {
	sub := &webpush.Subscription{
		Endpoint: s.Endpoint,
		Keys: webpush.Keys{
			P256dh: s.P256dh,
			Auth:   s.Auth,
		},
	}

	resp, err := webpush.SendNotification(payload, sub, &webpush.Options{
		Subscriber:      env.GetEnv("VAPID_SUBJECT", "mailto:ops@flowdesk.app"),
		VAPIDPublicKey:  vapidPublic,
		VAPIDPrivateKey: vapidPrivate,
		TTL:             60,
	})
	if err != nil {
		log.Warnf("[Push] send to endpoint failed: %v", err)
		return
	}
	defer resp.Body.Close()

	// 404/410 mean the browser dropped the subscription.
	if resp.StatusCode == 404 || resp.StatusCode == 410 {
		_ = repo.DeleteByEndpoint(s.UserID, s.Endpoint)
	}
}
