package main

import (
	"context"
	"fmt"
	"time"

	mainapp "github.com/Possessed66/BotLMKRD/app"
	"github.com/Possessed66/BotLMKRD/internal/approval"
	"github.com/Possessed66/BotLMKRD/internal/decisions"
	"github.com/Possessed66/BotLMKRD/internal/handler"
	"github.com/Possessed66/BotLMKRD/internal/ledger"
	"github.com/Possessed66/BotLMKRD/internal/notify"
	"github.com/Possessed66/BotLMKRD/internal/queue"
	"github.com/Possessed66/BotLMKRD/internal/store"
	"github.com/Possessed66/BotLMKRD/lib/fcm"
	"github.com/Possessed66/BotLMKRD/lib/kafka"
	"github.com/Possessed66/BotLMKRD/lib/telegram"
	"github.com/Possessed66/BotLMKRD/router"

	"github.com/sirupsen/logrus"
)

const directoryTTL = 10 * time.Minute

func main() {
	app := mainapp.Setup()

	fmt.Println("*************** SETUP KAFKA ***************")
	kafkaCfg := kafka.Config{Brokers: app.Kafka.Brokers, GroupID: app.Kafka.GroupID}
	if err := kafkaCfg.Verify(); err != nil {
		fmt.Println("DISABLE KAFKA!", err)
	} else {
		fmt.Println("Kafka connection established")
	}

	if err := kafka.CreateTopic(kafkaCfg, ledger.DefaultTopic, 3, 1); err != nil {
		fmt.Printf("Failed to create ledger topic: %v\n", err)
	}
	if err := kafka.CreateTopic(kafkaCfg, decisions.Topic, 3, 1); err != nil {
		fmt.Printf("Failed to create decisions topic: %v\n", err)
	}

	// Messaging transport
	channel, err := telegram.New(app.Telegram.Token)
	if err != nil {
		logrus.Fatal("Failed to initialize telegram channel: ", err)
	}

	db := app.Database.DB
	requests := store.NewRequestStore(db)
	queueStore := store.NewQueueStore(db, app.Queue.MaxAttempts, app.Queue.MaxDepth)
	tokens := store.NewDeviceTokenStore(db)

	// Mirror requester notices to registered devices when FCM is configured
	var requesterChannel notify.Channel = channel
	if app.FCM.Enabled {
		pusher, err := fcm.New(app.FCM.CredentialsPath)
		if err != nil {
			logrus.WithError(err).Warn("FCM disabled: initialization failed")
		} else {
			requesterChannel = notify.MirroredChannel{
				Channel: channel,
				Pusher:  pusher,
				Tokens:  tokens,
				Title:   "Order update",
			}
		}
	}

	ops := notify.Operators{Channel: channel, AdminIDs: app.Telegram.AdminIDs}
	directory := approval.NewCachedDirectory(approval.NewDBSource(db), directoryTTL)

	gate := approval.NewGate(requests, directory, requesterChannel)
	host := approval.PromptHost{Channel: requesterChannel}
	ctrl := approval.NewController(requests, directory, requesterChannel, host, ops)

	led := ledger.NewKafka(kafkaCfg, ledger.DefaultTopic)
	worker := queue.NewWorker(queueStore, led, ops, app.Runtime, app.Queue)
	worker.Start()

	consumer := decisions.NewConsumer(kafkaCfg, ctrl)
	go func() {
		defer consumer.Close()
		if err := consumer.Run(context.Background()); err != nil {
			logrus.WithError(err).Error("Decision consumer stopped")
		}
	}()

	api := &handler.API{
		Runtime:  app.Runtime,
		Gate:     gate,
		Ctrl:     ctrl,
		Queue:    queueStore,
		Requests: requests,
		Tokens:   tokens,
		Ops:      ops,
	}

	fiberApp := router.New(api, app.Web.APIKey)
	port := app.Web.Port
	if len(port) == 0 {
		port = "3636"
	}
	fmt.Println("port=", port)
	if err := fiberApp.Listen(":" + port); err != nil {
		logrus.Fatal("HTTP server stopped: ", err)
	}
}
