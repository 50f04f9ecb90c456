package storage

import "context"

// Webhook is an external broadcast target registered independently of any
// server config.
type Webhook struct {
	GuildID   string
	GuildName string
	URL       string
}

func (s *Store) Webhooks(ctx context.Context) ([]Webhook, error) {
	rows, err := s.pool.Query(ctx, `SELECT guild_id, guild_name, webhook_url FROM webhooks;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hooks []Webhook
	for rows.Next() {
		var w Webhook
		if err := rows.Scan(&w.GuildID, &w.GuildName, &w.URL); err != nil {
			return nil, err
		}
		hooks = append(hooks, w)
	}
	return hooks, rows.Err()
}
