package sqlinline

const QInsertUsageEvent = `--sql b72f50c8-4a1d-4e93-a685-0d3c98e61f47
insert into usage_events (id, user_id, event_type, success, latency_ms, country, units, created_at)
values (gen_random_uuid(), $1::uuid, $2::text, $3::boolean, $4::int, nullif($5::text, ''), $6::int, now());
`
