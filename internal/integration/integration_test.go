package integration

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/Michaszek224/sk2kahoot/internal/app"
	redisstore "github.com/Michaszek224/sk2kahoot/internal/infra/redis"
	"github.com/Michaszek224/sk2kahoot/internal/transport/tcpserver"
)

// TestQuizOverTCPWithRedisStore runs the full quiz flow against a real Redis
// instance backing the session store's liveness keys.
func TestQuizOverTCPWithRedisStore(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	redisAddr, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	client := goredis.NewClient(&goredis.Options{Addr: redisAddr})
	defer client.Close()

	log := zap.NewNop()
	bc := app.NewBroadcaster(log)
	store := redisstore.NewSessionStore(client, 5*time.Minute)
	registry := app.NewRegistry(store, bc, log)
	service := app.NewService(registry, bc, log)
	srv := tcpserver.New(service, bc, log)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = srv.Serve(serveCtx, ln) }()
	addr := ln.Addr().String()

	creator := dial(t, addr)
	sendLine(t, creator.conn, "CREATE")
	code := strings.TrimPrefix(readLine(t, creator), "QUIZ_CODE:")
	if len(code) != 6 {
		t.Fatalf("bad quiz code %q", code)
	}

	if n, err := client.Exists(ctx, "quiz:session:"+code).Result(); err != nil || n != 1 {
		t.Fatalf("expected liveness key for %s, exists=%d err=%v", code, n, err)
	}

	sendLine(t, creator.conn, "ADD_QUESTION:2+2?:3:4:5:6:1:5")
	expectLine(t, creator, "QUESTION_ADDED")

	player := dial(t, addr)
	sendLine(t, player.conn, "JOIN:"+code+":Alice")
	expectLine(t, player, "JOINED:"+code)

	sendLine(t, creator.conn, "START")
	expectLine(t, player, "Quiz has started!")
	expectLine(t, player, "QUESTION:2+2?:3:4:5:6:5")

	sendLine(t, player.conn, "ANSWER:1")
	expectLine(t, creator, "PLAYER_ANSWER:Alice:1")
	expectLine(t, player, "SCORES:Alice:100;")
	expectLine(t, player, "Quiz has ended!")

	// Creator disconnect takes the session and its liveness key down.
	_ = creator.conn.Close()
	deadline := time.Now().Add(5 * time.Second)
	for {
		n, err := client.Exists(ctx, "quiz:session:"+code).Result()
		if err == nil && n == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("liveness key for %s not cleared after creator disconnect", code)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

type lineClient struct {
	conn    net.Conn
	scanner *bufio.Scanner
}

func dial(t *testing.T, addr string) *lineClient {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &lineClient{conn: conn, scanner: bufio.NewScanner(conn)}
}

func sendLine(t *testing.T, conn net.Conn, line string) {
	t.Helper()
	if _, err := conn.Write([]byte(line + "\n")); err != nil {
		t.Fatalf("send %q: %v", line, err)
	}
}

func readLine(t *testing.T, c *lineClient) string {
	t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	if !c.scanner.Scan() {
		t.Fatalf("read line: %v", c.scanner.Err())
	}
	return c.scanner.Text()
}

func expectLine(t *testing.T, c *lineClient, want string) {
	t.Helper()
	if got := readLine(t, c); got != want {
		t.Fatalf("read %q, want %q", got, want)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	return fmt.Sprintf("%s:%s", host, port.Port()), func() {
		_ = container.Terminate(ctx)
	}
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
