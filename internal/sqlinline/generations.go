package sqlinline

const QEnsureGenerationsSchema = `--sql 3e51c0a4-9b7d-4c2e-8f61-0d2a7b4e9c15
create table if not exists generations (
    id uuid primary key,
    prompt text not null,
    video_url text not null,
    duration_seconds int not null,
    has_audio boolean not null default false,
    audio_source text not null default '',
    created_at timestamptz not null default now()
);
create index if not exists generations_created_at_idx on generations (created_at desc);
`

const QInsertGeneration = `--sql 9c0f4d27-5a1e-4b83-a6d9-7e2c1f8b3a40
insert into generations (id, prompt, video_url, duration_seconds, has_audio, audio_source, created_at)
values ($1::uuid, $2::text, $3::text, $4::int, $5::boolean, $6::text, $7::timestamptz);
`

const QListRecentGenerations = `--sql 5b7a2e91-c4d8-4f06-b3a2-18e9d0c6f7b4
select id::text, prompt, video_url, duration_seconds, has_audio, audio_source, created_at
from generations
order by created_at desc, id desc
limit $1::int;
`
