package alert

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// 确保实现了接口
var _ SubscriptionManager = (*RedisSubscriptionManager)(nil)

type RedisSubscriptionManager struct {
	client *redis.Client
}

func NewRedisSubscriptionManager(addr string) *RedisSubscriptionManager {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &RedisSubscriptionManager{client: rdb}
}

// luaSubscribe 订阅脚本
// KEYS[1]: detailKey (ratealert:detail:{id})
// KEYS[2]: indexKey (ratealerts:{market}:{metric}:{direction})
// ARGV[1]: alertID
// ARGV[2]: score (threshold)
// ARGV[3]: ruleJSON
// ARGV[4]: alertType
const luaSubscribe = `
	redis.call('SET', KEYS[1], ARGV[3])
	-- 拼装 Member: ID:Type (避免查询时反序列化)
	local member = ARGV[1] .. ":" .. ARGV[4]
	redis.call('ZADD', KEYS[2], ARGV[2], member)
	return 1
`

// Subscribe 订阅预警 (Redis Lua 实现)
func (m *RedisSubscriptionManager) Subscribe(ctx context.Context, rule RateAlert) error {
	data, err := json.Marshal(rule)
	if err != nil {
		return err
	}
	detailKey := "ratealert:detail:" + rule.AlertID
	indexKey := indexKeyOf(rule.Market, rule.Metric, rule.Direction)
	// 传入 Type 以便拼装 Member
	return m.client.Eval(ctx, luaSubscribe, []string{detailKey, indexKey},
		rule.AlertID, rule.Threshold, data, string(rule.Type)).Err()
}

// luaUnsubscribe 取消订阅脚本
// KEYS[1]: detailKey (ratealert:detail:{id})
// ARGV[1]: alertID
const luaUnsubscribe = `
	local data = redis.call('GET', KEYS[1])
	if not data then return 0 end

	local rule = cjson.decode(data)
	local market = rule["market"]
	local metric = rule["metric"]
	local direction = rule["direction"]
	local type = rule["type"]

	local indexKey = string.format("ratealerts:%s:%s:%s", market, metric, direction)

	-- 重组 Member 以便删除
	local member = ARGV[1] .. ":" .. type

	redis.call('ZREM', indexKey, member)
	redis.call('DEL', KEYS[1])
	return 1
`

// Unsubscribe 取消订阅 (Redis Lua 实现)
func (m *RedisSubscriptionManager) Unsubscribe(ctx context.Context, alertID string) error {
	detailKey := "ratealert:detail:" + alertID
	return m.client.Eval(ctx, luaUnsubscribe, []string{detailKey}, alertID).Err()
}

// GetTriggered 获取触发的预警
// 不反序列化详情，直接从 ZSet Member 还原 ID 和 Type
func (m *RedisSubscriptionManager) GetTriggered(ctx context.Context, market string, metric Metric, current, last float64) ([]RateAlert, error) {
	// 预分配切片容量，减少扩容次数
	triggered := make([]RateAlert, 0, 128)

	// 1. 根据指标走势判断方向
	var direction string
	var min, max string

	if current > last {
		// 利率上行: 查 Threshold <= current 的 high 规则
		direction = "high"
		min = "-inf"
		max = strconv.FormatFloat(current, 'f', -1, 64)
	} else if current < last {
		// 利率下行: 查 Threshold >= current 的 low 规则
		direction = "low"
		min = strconv.FormatFloat(current, 'f', -1, 64)
		max = "+inf"
	} else {
		// 指标没变，直接返回
		return nil, nil
	}
	indexKey := indexKeyOf(market, metric, direction)

	// 2. 分页参数
	batchSize := 100
	offset := 0

	for {
		opt := &redis.ZRangeBy{
			Min:    min,
			Max:    max,
			Offset: int64(offset),
			Count:  int64(batchSize),
		}

		// 3. 查询 Member 列表 (格式: "ID:Type")
		members, err := m.client.ZRangeByScore(ctx, indexKey, opt).Result()
		if err != nil {
			return nil, err
		}

		if len(members) == 0 {
			break
		}

		membersToRemove := make([]string, 0, len(members))

		for _, member := range members {
			// 4. 解析 Member (strings.Cut 比 Split 少一次切片分配)
			alertID, typeStr, found := strings.Cut(member, ":")
			if !found {
				continue
			}
			alertType := AlertType(typeStr)

			// 5. AlertAlways 的冷却时间 (利率在阈值附近抖动时防止打摆子)
			if alertType == AlertAlways {
				cooldownKey := "ratealert:cooldown:" + alertID
				// SetNX: Key 不存在则设置成功，存在则失败
				// 默认冷却 60 秒
				allowed, _ := m.client.SetNX(ctx, cooldownKey, "1", 60*time.Second).Result()
				if !allowed {
					continue // 冷却中，跳过
				}
			}

			// 6. AlertOnce 触发后从索引移除
			if alertType == AlertOnce {
				membersToRemove = append(membersToRemove, member)
			}

			// 7. 构造返回对象
			rule := RateAlert{
				AlertID: alertID,
				Type:    alertType,
				Market:  market,
				Metric:  metric,
			}
			triggered = append(triggered, rule)
		}

		// 8. 批量删除 AlertOnce 的索引
		if len(membersToRemove) > 0 {
			args := make([]interface{}, len(membersToRemove))
			for i, v := range membersToRemove {
				args[i] = v
			}
			m.client.ZRem(ctx, indexKey, args...)
		}

		// 9. 准备下一页
		offset += batchSize
	}

	return triggered, nil
}

func indexKeyOf(market string, metric Metric, direction string) string {
	return "ratealerts:" + market + ":" + string(metric) + ":" + direction
}
