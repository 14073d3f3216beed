package sqlinline

const QEnsureIntegrationTokensSchema = `--sql 1f6c9e3a-2b4d-4a7e-9d05-c8b3e2a1f706
create table if not exists integration_tokens (
    provider text primary key,
    token text not null,
    updated_at timestamptz not null default now()
);
`

const QSelectIntegrationToken = `--sql 8a8e0d52-7f5d-4f21-8b7d-f7d4b821eed7
select token
from integration_tokens
where provider = $1::text
limit 1;
`

const QUpsertIntegrationToken = `--sql 6d4f5660-0f7c-4f73-a1f3-9ab6d5e6c7a3
insert into integration_tokens (provider, token, updated_at)
values ($1::text, $2::text, now())
on conflict (provider) do update set
    token = excluded.token,
    updated_at = now();
`
