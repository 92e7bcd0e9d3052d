package redis

import (
	"encoding/json"
	goerrors "errors"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"goxrpbridge/bridge"
	"goxrpbridge/config"
	"goxrpbridge/types"
)

func timeoutDialOptions() []redis.DialOption {
	return []redis.DialOption{
		redis.DialConnectTimeout(5 * time.Second),
		redis.DialReadTimeout(5 * time.Second),
		redis.DialWriteTimeout(5 * time.Second),
	}
}

// Store persists bridge requests in Redis. Each request lives under a
// stable record key so phase transitions can run as WATCH/MULTI
// compare-and-set; per-status sets and a source-tx index point at it.
type Store struct {
	pool *redis.Pool
	log  *logrus.Entry
}

func New(logger *logrus.Logger) *Store {
	redisAddr := fmt.Sprintf("%s:%d", config.Config.Server.RedisHost, config.Config.Server.RedisPort)
	return &Store{
		pool: &redis.Pool{
			MaxIdle: 5,
			Dial:    func() (redis.Conn, error) { return redis.Dial("tcp", redisAddr, timeoutDialOptions()...) },
		},
		log: logger.WithField("component", "redis"),
	}
}

// Ping checks connectivity on startup.
func (s *Store) Ping() error {
	conn := s.pool.Get()
	defer conn.Close()

	_, err := conn.Do("PING")
	return pkgerrors.Wrap(err, "redis ping")
}

func recordKey(requestID string) string {
	return fmt.Sprintf("bridgereq:%s", requestID)
}

func statusSetKey(status types.Status) string {
	return fmt.Sprintf("bridgereqs:%s", status)
}

func sourceTxKey(txHash string) string {
	return fmt.Sprintf("bridgereq:sourcetx:%s", txHash)
}

func (s *Store) Create(req *types.BridgeRequest) error {
	conn := s.pool.Get()
	defer conn.Close()

	if req == nil {
		return pkgerrors.New("null request to store")
	}
	if req.RequestID == "" {
		return pkgerrors.New("bridge request cannot have empty ID")
	}
	if req.Status == "" {
		return pkgerrors.New("bridge request cannot have empty status")
	}

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return pkgerrors.Wrap(err, "cannot marshal bridge request to JSON")
	}

	// record and status-set entry land together or not at all, so a
	// half-created request can never hide from FindByStatus
	key := recordKey(req.RequestID)
	if _, err := conn.Do("WATCH", key); err != nil {
		return err
	}

	exists, err := redis.Int(conn.Do("EXISTS", key))
	if err != nil {
		conn.Do("UNWATCH")
		s.log.WithError(err).Error("redis EXISTS failed")
		return err
	}
	if exists == 1 {
		conn.Do("UNWATCH")
		return bridge.ErrAlreadyExists
	}

	if err := conn.Send("MULTI"); err != nil {
		return err
	}
	if err := conn.Send("SET", key, reqJSON); err != nil {
		return err
	}
	if err := conn.Send("SADD", statusSetKey(req.Status), req.RequestID); err != nil {
		return err
	}

	reply, err := conn.Do("EXEC")
	if err != nil {
		s.log.WithError(err).Error("redis EXEC failed")
		return err
	}
	if reply == nil {
		// someone created the same ID between WATCH and EXEC
		return bridge.ErrAlreadyExists
	}

	return nil
}

func (s *Store) Get(requestID string) (*types.BridgeRequest, error) {
	conn := s.pool.Get()
	defer conn.Close()

	return getRequest(conn, requestID)
}

func getRequest(conn redis.Conn, requestID string) (*types.BridgeRequest, error) {
	raw, err := redis.Bytes(conn.Do("GET", recordKey(requestID)))
	if goerrors.Is(err, redis.ErrNil) {
		return nil, bridge.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var req types.BridgeRequest
	if err = json.Unmarshal(raw, &req); err != nil {
		return nil, pkgerrors.Wrap(err, "cannot unmarshal bridge request")
	}
	return &req, nil
}

// CompareAndUpdate applies mutate to the stored request only if its
// persisted phase still equals expected. A phase mismatch, or a record
// changed between WATCH and EXEC, returns ErrConflict and leaves the
// record untouched.
func (s *Store) CompareAndUpdate(requestID string, expected types.Phase, mutate func(*types.BridgeRequest)) error {
	conn := s.pool.Get()
	defer conn.Close()

	key := recordKey(requestID)

	if _, err := conn.Do("WATCH", key); err != nil {
		return err
	}

	req, err := getRequest(conn, requestID)
	if err != nil {
		conn.Do("UNWATCH")
		return err
	}

	if req.Phase != expected {
		conn.Do("UNWATCH")
		return bridge.ErrConflict
	}

	prevStatus := req.Status
	mutate(req)

	reqJSON, err := json.Marshal(req)
	if err != nil {
		conn.Do("UNWATCH")
		return pkgerrors.Wrap(err, "cannot marshal bridge request to JSON")
	}

	if err := conn.Send("MULTI"); err != nil {
		return err
	}
	if err := conn.Send("SET", key, reqJSON); err != nil {
		return err
	}
	if req.Status != prevStatus {
		if err := conn.Send("SREM", statusSetKey(prevStatus), requestID); err != nil {
			return err
		}
		if err := conn.Send("SADD", statusSetKey(req.Status), requestID); err != nil {
			return err
		}
	}
	if req.SourceTxHash != "" {
		if err := conn.Send("SET", sourceTxKey(req.SourceTxHash), requestID); err != nil {
			return err
		}
	}

	reply, err := conn.Do("EXEC")
	if err != nil {
		s.log.WithError(err).Error("redis EXEC failed")
		return err
	}
	if reply == nil {
		// someone else touched the record since WATCH
		return bridge.ErrConflict
	}

	return nil
}

// FindBySourceTxHash returns the request that already claimed a ledger
// transaction, or nil when the hash is unclaimed.
func (s *Store) FindBySourceTxHash(txHash string) (*types.BridgeRequest, error) {
	conn := s.pool.Get()
	defer conn.Close()

	requestID, err := redis.String(conn.Do("GET", sourceTxKey(txHash)))
	if goerrors.Is(err, redis.ErrNil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	req, err := getRequest(conn, requestID)
	if goerrors.Is(err, bridge.ErrNotFound) {
		// dangling index entry, treat the hash as unclaimed
		return nil, nil
	}
	return req, err
}

func (s *Store) FindByStatus(status types.Status) ([]*types.BridgeRequest, error) {
	conn := s.pool.Get()
	defer conn.Close()

	reqs := make([]*types.BridgeRequest, 0)

	var cursor int64
	for {
		values, err := redis.Values(conn.Do("SSCAN", statusSetKey(status), cursor))
		if err != nil {
			return nil, err
		}

		var requestIDs []string
		if _, err = redis.Scan(values, &cursor, &requestIDs); err != nil {
			return nil, err
		}

		for _, id := range requestIDs {
			req, err := getRequest(conn, id)
			if goerrors.Is(err, bridge.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			if req.Status == status {
				reqs = append(reqs, req)
			}
		}

		if cursor == 0 {
			break
		}
	}

	return reqs, nil
}
