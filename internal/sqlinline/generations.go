package sqlinline

const QInsertGeneration = `--sql 2e8b3c57-6f90-41da-b7a4-05c1d29e84f6
insert into generations (id, user_id, style, room_type, prompt, original_image_url, generated_payload, created_at)
values ($1::uuid, $2::uuid, $3::text, $4::text, $5::text, $6::text, $7::jsonb, now())
returning created_at;
`

const QSelectGenerationsByUser = `--sql 9d4f1a80-2b36-4e5c-8f71-c60a3d85b214
select id, user_id, style, room_type, prompt, original_image_url, generated_payload, created_at
from generations
where user_id = $1::uuid
order by created_at desc;
`

const QSelectGenerationByIDAndOwner = `--sql 51c7e9b3-084d-4f26-9ad0-3e6b72f51c98
select id, user_id, style, room_type, prompt, original_image_url, generated_payload, created_at
from generations
where id = $1::uuid
  and user_id = $2::uuid
limit 1;
`

const QDeleteGenerationByIDAndOwner = `--sql e0a64d12-7c58-43b9-8e27-f19d05c3a6b2
delete from generations
where id = $1::uuid
  and user_id = $2::uuid;
`
