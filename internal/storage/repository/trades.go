package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/myalgostack/license-server/internal/models"
)

// UpsertTrade сохраняет сделку или обновляет существующую по тройке
// (пользователь, счет, тикет). Возвращает ID сделки и признак того,
// что запись уже существовала (повторная отправка — закрытие сделки).
func (s *Storage) UpsertTrade(ctx context.Context, trade models.Trade) (string, bool, error) {
	const op = "storage.UpsertTrade"
	select {
	case <-ctx.Done():
		return "", false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var id string
	var inserted bool
	query := `INSERT INTO trades (user_uid, mt_account_id, ea_id, ticket, symbol, type, lots,
			      open_price, close_price, stop_loss, take_profit, open_time, close_time,
			      profit, pips, swap, commission, status)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
			  ON CONFLICT (user_uid, mt_account_id, ticket)
			  DO UPDATE SET close_price = EXCLUDED.close_price,
			      close_time = EXCLUDED.close_time,
			      profit = EXCLUDED.profit,
			      pips = EXCLUDED.pips,
			      swap = EXCLUDED.swap,
			      commission = EXCLUDED.commission,
			      status = EXCLUDED.status,
			      stop_loss = EXCLUDED.stop_loss,
			      take_profit = EXCLUDED.take_profit
			  RETURNING id, (xmax = 0);`
	if err := s.DB.QueryRowContext(ctx, query,
		trade.UserUID, trade.MtAccountID, trade.EaID, trade.Ticket, trade.Symbol,
		trade.Type, trade.Lots, trade.OpenPrice, trade.ClosePrice, trade.StopLoss,
		trade.TakeProfit, trade.OpenTime, trade.CloseTime, trade.Profit, trade.Pips,
		trade.Swap, trade.Commission, trade.Status).Scan(&id, &inserted); err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	return id, !inserted, nil
}

// ListTrades возвращает страницу сделок пользователя под фильтром и
// общее количество, новые сверху.
func (s *Storage) ListTrades(ctx context.Context, userUID string, filter models.TradeFilter) ([]*models.Trade, int, error) {
	const op = "storage.ListTrades"
	select {
	case <-ctx.Done():
		return nil, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	where := ` WHERE user_uid = $1
			  AND ($2 = '' OR status = $2)
			  AND ($3 = '' OR mt_account_id::TEXT = $3)
			  AND ($4 = '' OR ea_id::TEXT = $4)`

	var total int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM trades`+where,
		userUID, filter.Status, filter.MtAccountID, filter.EaID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	query := `SELECT id, user_uid, mt_account_id, ea_id, ticket, symbol, type, lots,
			      open_price, close_price, stop_loss, take_profit, open_time, close_time,
			      profit, pips, swap, commission, status, created_at
			  FROM trades` + where + `
			  ORDER BY open_time DESC
			  LIMIT $5 OFFSET $6`
	rows, err := s.DB.QueryContext(ctx, query, userUID, filter.Status,
		filter.MtAccountID, filter.EaID, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []*models.Trade
	for rows.Next() {
		var tr models.Trade
		var eaID sql.NullString
		var closePrice, stopLoss, takeProfit, profit, pips sql.NullFloat64
		var closeTime sql.NullTime
		if err = rows.Scan(&tr.ID, &tr.UserUID, &tr.MtAccountID, &eaID, &tr.Ticket,
			&tr.Symbol, &tr.Type, &tr.Lots, &tr.OpenPrice, &closePrice, &stopLoss,
			&takeProfit, &tr.OpenTime, &closeTime, &profit, &pips, &tr.Swap,
			&tr.Commission, &tr.Status, &tr.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		if eaID.Valid {
			tr.EaID = &eaID.String
		}
		if closePrice.Valid {
			tr.ClosePrice = &closePrice.Float64
		}
		if stopLoss.Valid {
			tr.StopLoss = &stopLoss.Float64
		}
		if takeProfit.Valid {
			tr.TakeProfit = &takeProfit.Float64
		}
		if closeTime.Valid {
			tr.CloseTime = &closeTime.Time
		}
		if profit.Valid {
			tr.Profit = &profit.Float64
		}
		if pips.Valid {
			tr.Pips = &pips.Float64
		}
		result = append(result, &tr)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return result, total, nil
}
