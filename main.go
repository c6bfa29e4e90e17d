package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"PulseChat/data/pg"
	"PulseChat/global"
	"PulseChat/logger"
	"PulseChat/middleware"
	chathttp "PulseChat/module/chat"
	chatmodel "PulseChat/module/chat/model"
	chatsvc "PulseChat/module/chat/service"
	userhttp "PulseChat/module/user"
	usermodel "PulseChat/module/user/model"
	usersvc "PulseChat/module/user/service"
	"PulseChat/service/chat"
	"PulseChat/service/chat/handlers"
	"PulseChat/service/storage"
	redisc "PulseChat/service/storage/redis"
	"PulseChat/tools/safe"
	sec "PulseChat/tools/security"

	"github.com/gin-gonic/gin"
)

func main() {
	global.Load()
	conf := global.Conf

	ctx := context.Background()
	if err := pg.Init(ctx, conf.DatabaseURL); err != nil {
		logger.Errorf("postgres init: %v", err)
		os.Exit(1)
	}
	defer pg.Close()

	jwtOpts := sec.Options{
		Secret:     global.GetJwtSecret(),
		Alg:        "HS256",
		TTL:        conf.AccessTTL,
		RefreshTTL: conf.RefreshTTL,
	}

	users := usersvc.NewUserService(usermodel.NewStore(), jwtOpts)
	convStore := chatmodel.NewConversationStore()
	convs := chatsvc.NewConversationService(convStore)
	msgs := chatsvc.NewMessageService(chatmodel.NewMessageStore(), convStore)

	// live-connection core, constructed explicitly and owned by this boot
	// sequence
	srv := chat.NewServer(conf.NodeID, func(token string) (chat.UserID, error) {
		id, err := users.VerifyAccess(token)
		return chat.UserID(id), err
	})
	srv.SetMessageSink(msgs)
	srv.SetMembershipChecker(convs)
	handlers.RegisterAll(srv)

	if conf.RedisAddr != "" {
		if err := redisc.InitRedis(redisc.Config{
			Addr:     conf.RedisAddr,
			Password: conf.RedisPassword,
			DB:       conf.RedisDB,
		}); err != nil {
			logger.Warnf("redis unavailable, presence mirror disabled: %v", err)
		} else {
			srv.SetPresenceMirror(storage.NewPresenceStore(conf.NodeID, conf.PresenceTTL), conf.PresenceTTL/2)
			defer redisc.CloseRedis()
		}
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Origin())
	registerRoutes(r, srv, userhttp.NewHandler(users), chathttp.NewHandler(convs, msgs))

	httpSrv := &http.Server{Addr: conf.HTTPAddr, Handler: r}
	safe.SafeGo(func() {
		logger.Infof("listening on %s node=%s", conf.HTTPAddr, conf.NodeID)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("http server: %v", err)
			os.Exit(1)
		}
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	srv.Shutdown()
}

func registerRoutes(r *gin.Engine, srv *chat.Server, users *userhttp.Handler, chats *chathttp.Handler) {
	auth := middleware.RouteOpt{IsAuth: true}
	open := middleware.RouteOpt{}

	r.GET("/ws", srv.HandleWS)

	middleware.POST(r, "/auth/register", users.Register, open)
	middleware.POST(r, "/auth/login", users.Login, open)
	middleware.POST(r, "/auth/refresh", users.Refresh, open)

	middleware.GET(r, "/users/me", users.Me, auth)
	middleware.GET(r, "/users/search", users.Search, auth)
	middleware.GET(r, "/users/username/:name", users.GetByUsername, auth)
	middleware.GET(r, "/users/:id", users.Get, auth)
	middleware.PUT(r, "/users/:id", users.Update, auth)
	middleware.DELETE(r, "/users/:id", users.Deactivate, auth)

	middleware.GET(r, "/conversations", chats.ListConversations, auth)
	middleware.POST(r, "/conversations", chats.CreateConversation, auth)
	middleware.GET(r, "/conversations/:id", chats.GetConversation, auth)
	middleware.GET(r, "/conversations/:id/messages", chats.History, auth)
	middleware.GET(r, "/conversations/:id/participants", chats.Participants, auth)
	middleware.POST(r, "/conversations/:id/participants/:userID", chats.AddParticipant, auth)
	middleware.DELETE(r, "/conversations/:id/participants/:userID", chats.RemoveParticipant, auth)
	middleware.DELETE(r, "/conversations/:id", chats.DeleteConversation, auth)

	middleware.POST(r, "/messages", chats.SendMessage, auth)
	middleware.PUT(r, "/messages/:id", chats.EditMessage, auth)
	middleware.DELETE(r, "/messages/:id", chats.DeleteMessage, auth)
	middleware.POST(r, "/messages/:id/read/:messageID", chats.MarkRead, auth)
	middleware.POST(r, "/messages/:id/reactions", chats.AddReaction, auth)
	middleware.DELETE(r, "/messages/:id/reactions", chats.RemoveReaction, auth)
	middleware.POST(r, "/messages/:id/attachments", chats.AddAttachment, auth)

	middleware.GET(r, "/presence/stats", srv.HandleStats, auth)
	middleware.GET(r, "/presence/users/:id", srv.HandleUserPresence, auth)
	middleware.GET(r, "/presence/conversations/:id/online", srv.HandleOnlineMembers, auth)
}
