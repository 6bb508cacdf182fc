package sqlinline

const QInsertUser = `--sql 3f7c2a91-5d04-4b8e-9a11-6c2f84d0b3e7
insert into users (id, email, password_hash, role, generation_count, created_at, updated_at)
values (gen_random_uuid(), $1::text, $2::text, 'general', 0, now(), now())
returning id, email, password_hash, role, generation_count, created_at, updated_at;
`

const QSelectUserByID = `--sql 8b1e6f42-9c3d-4a70-b5e8-1d92c47a06f5
select id, email, password_hash, role, generation_count, created_at, updated_at
from users
where id = $1::uuid
limit 1;
`

const QSelectUserByEmail = `--sql c4d90e27-1a6b-48f3-8c52-7e03b9f1a284
select id, email, password_hash, role, generation_count, created_at, updated_at
from users
where email = $1::text
limit 1;
`

const QIncrementGenerationCount = `--sql 6a25d8f0-3e71-4c96-a40d-92b5e17c83d9
update users
set generation_count = generation_count + $2::int,
    updated_at = now()
where id = $1::uuid;
`
